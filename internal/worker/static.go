package worker

import "net/http"

// indexPage is a minimal built-in status page. The real frontend is the
// desktop app; this exists so hitting the daemon in a browser shows something
// useful.
const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>attune</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 640px; margin: 3em auto; color: #222; }
pre { background: #f5f5f5; padding: 1em; border-radius: 6px; overflow-x: auto; }
.muted { color: #888; }
</style>
</head>
<body>
<h1>attune</h1>
<p class="muted">Focus monitoring daemon. The desktop app talks to this service.</p>
<h2>Active session</h2>
<pre id="session">loading...</pre>
<h2>Latest events</h2>
<pre id="events"></pre>
<script>
fetch('/api/sessions/active').then(r => r.json()).then(s => {
  document.getElementById('session').textContent = s ? JSON.stringify(s, null, 2) : 'none';
});
const events = document.getElementById('events');
new EventSource('/api/events').onmessage = e => {
  events.textContent = e.data + '\n' + events.textContent;
};
</script>
</body>
</html>
`

// handleIndex serves the status page.
func (s *Service) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write([]byte(indexPage))
}
