package server

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// chatPage renders the widget shell. Questions arrive over /ws as HTML
// fragments produced by the renderer.
func chatPage(title string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		escaped := templ.EscapeString(title)
		for _, s := range []string{pageHead, escaped, pageMiddle, escaped, pageTail} {
			if _, err := io.WriteString(w, s); err != nil {
				return err
			}
		}
		return nil
	})
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`

const pageMiddle = `</title>
</head>
<body>
<main id="bleak-chat">
<h1>`

const pageTail = `</h1>
<section id="bleak-question" aria-live="polite"></section>
<button id="bleak-submit" type="button" disabled>Next</button>
<section id="bleak-summary" hidden></section>
</main>
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  var box = document.getElementById("bleak-question");
  var submit = document.getElementById("bleak-submit");
  var summary = document.getElementById("bleak-summary");
  var index = null;

  function valueOf(root) {
    var checks = root.querySelectorAll("input[type=checkbox]");
    if (checks.length) {
      var picked = Array.prototype.filter.call(checks, function (c) { return c.checked; })
        .map(function (c) { return c.value; });
      return picked.length ? JSON.stringify(picked) : "";
    }
    var radio = root.querySelector("input[type=radio]:checked");
    if (radio) { return radio.value; }
    var field = root.querySelector("input, textarea, select");
    return field ? field.value : "";
  }

  function onEdit() {
    if (index === null) { return; }
    ws.send(JSON.stringify({ type: "change", index: index, value: valueOf(box) }));
  }
  box.addEventListener("input", onEdit);
  box.addEventListener("change", onEdit);

  submit.addEventListener("click", function () {
    ws.send(JSON.stringify({ type: "submit" }));
  });

  ws.addEventListener("message", function (ev) {
    var msg = JSON.parse(ev.data);
    switch (msg.type) {
    case "question":
      index = msg.index;
      box.innerHTML = msg.html;
      submit.disabled = false;
      break;
    case "done":
      index = null;
      box.innerHTML = "";
      submit.hidden = true;
      summary.hidden = false;
      summary.textContent = (msg.answers || []).map(function (a) {
        return a.question + " " + a.value;
      }).join("\n");
      break;
    case "error":
      summary.hidden = false;
      summary.textContent = msg.error;
      break;
    }
  });
})();
</script>
</body>
</html>
`
