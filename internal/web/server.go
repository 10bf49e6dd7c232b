// Package web serves the verdict dashboard and its SSE stream.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kavikulu/shadowmine/internal/domain"
)

const verdictPollInterval = 2 * time.Second

type verdictReader interface {
	EventsAfter(index uint64) ([]domain.VerdictEventRecord, error)
}

// Server exposes HTTP endpoints serving the HTML dashboard and an SSE
// stream of detector verdicts.
type Server struct {
	Addr  string
	Store verdictReader

	l *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(l *zap.Logger, addr string, store verdictReader) *Server {
	return &Server{Addr: addr, Store: store, l: l}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/verdicts/stream", s.handleVerdictStream)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleVerdictStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "verdict store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(verdictPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendVerdicts := func() error {
		records, err := s.Store.EventsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Event)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: verdict\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendVerdicts(); err != nil {
		http.Error(w, "failed to load verdicts", http.StatusInternalServerError)
		s.l.Error("verdict stream initial load", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendVerdicts(); err != nil {
				s.l.Error("verdict stream poll", zap.Error(err))
			}
		}
	}
}

// Verdict dashboard: one card per analyzed sequence plus a live feed.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Shadowmine</title>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Press+Start+2P&family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
      --high:#1b9aaa;
      --moderate:#ff7f11;
      --low:#9c9c9c;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      display:flex;
      align-items:center;
      justify-content:center;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    body::before {
      content:'';
      position:fixed;
      inset:0;
      background:
        linear-gradient(90deg, rgba(0,0,0,.02) 1px, transparent 1px),
        linear-gradient(rgba(0,0,0,.02) 1px, transparent 1px);
      background-size:12px 12px;
      pointer-events:none;
    }
    #app {
      width:min(1400px, 96vw);
      background:var(--panel);
      border:3px solid var(--ink);
      padding:2rem;
      position:relative;
      image-rendering:pixelated;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
      display:grid;
      grid-template-columns:1fr 380px;
      gap:2rem;
    }
    #app::after {
      content:'';
      position:absolute;
      inset:8px;
      border:1px dashed rgba(0,0,0,.15);
      pointer-events:none;
    }
    .main-content {
      display:flex;
      flex-direction:column;
      gap:2rem;
    }
    header { display:flex; justify-content:space-between; align-items:flex-start; gap:1rem; }
    .eyebrow {
      font-family:'Press Start 2P','Space Mono',monospace;
      font-size:.55rem;
      text-transform:uppercase;
      letter-spacing:.2em;
      margin:0;
    }
    .status {
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.1em;
      border:2px solid var(--ink);
      padding:.4rem .9rem;
      background:#ffffff;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .sequence-grid {
      display:grid;
      grid-template-columns:repeat(auto-fit, minmax(320px, 1fr));
      gap:1.5rem;
    }
    .sequence-card {
      border:3px solid var(--ink);
      padding:1.5rem;
      background:#fff;
      box-shadow:8px 8px 0 rgba(0,0,0,.15);
      display:flex;
      flex-direction:column;
      gap:1rem;
    }
    .sequence-card-header {
      display:flex;
      justify-content:space-between;
      align-items:center;
      gap:.5rem;
    }
    .sequence-name {
      font-family:'Press Start 2P','Space Mono',monospace;
      font-size:.75rem;
      letter-spacing:.08em;
      margin:0;
      word-break:break-word;
      line-height:1.3;
    }
    .detector-row {
      display:flex;
      justify-content:space-between;
      align-items:center;
      gap:.6rem;
      border:2px solid var(--ink);
      padding:.7rem .9rem;
      background:#fefefe;
      box-shadow:4px 4px 0 rgba(0,0,0,.12);
    }
    .detector-name {
      font-size:.62rem;
      text-transform:uppercase;
      letter-spacing:.12em;
      color:var(--ink-mid);
    }
    .detector-score {
      font-size:1.1rem;
      font-weight:700;
      letter-spacing:.06em;
    }
    .pill {
      font-size:.55rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      padding:.35rem .7rem;
      border:2px solid var(--ink);
      background:#fefefe;
      color:var(--ink);
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .pill.muted {
      color:var(--ink-mid);
      border-color:var(--ink-mid);
      box-shadow:none;
    }
    .pill.band-high { color:var(--high); border-color:var(--high); }
    .pill.band-moderate { color:var(--moderate); border-color:var(--moderate); }
    .pill.band-low { color:var(--low); border-color:var(--low); }
    .pill.hit {
      background:var(--ink);
      color:#ffffff;
    }
    .empty-state {
      border:2px dashed var(--ink-soft);
      padding:2rem;
      text-align:center;
      font-size:.8rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      color:var(--ink-mid);
    }
    .feed-sidebar {
      display:flex;
      flex-direction:column;
      gap:1rem;
      max-height:calc(100vh - 8rem);
      overflow-y:auto;
    }
    .feed-sidebar::-webkit-scrollbar { width:8px; }
    .feed-sidebar::-webkit-scrollbar-track { background:#f6f6f6; }
    .feed-sidebar::-webkit-scrollbar-thumb { background:#9c9c9c; border-radius:4px; }
    .sidebar-title {
      font-family:'Press Start 2P','Space Mono',monospace;
      font-size:.6rem;
      text-transform:uppercase;
      letter-spacing:.15em;
      margin-bottom:1rem;
      padding-bottom:.8rem;
      border-bottom:2px solid var(--ink);
    }
    .feed-card {
      border:2px solid var(--ink);
      padding:1rem;
      background:#fff;
      box-shadow:4px 4px 0 rgba(0,0,0,.12);
      font-size:.7rem;
      line-height:1.4;
    }
    .feed-card-header {
      display:flex;
      justify-content:space-between;
      align-items:center;
      margin-bottom:.8rem;
      padding-bottom:.8rem;
      border-bottom:1px dashed var(--ink-soft);
    }
    .feed-detector {
      font-weight:700;
      text-transform:uppercase;
      letter-spacing:.1em;
    }
    .feed-detector.band-high { color:var(--high); }
    .feed-detector.band-moderate { color:var(--moderate); }
    .feed-detector.band-low { color:var(--low); }
    .feed-time {
      font-size:.6rem;
      color:var(--ink-mid);
    }
    .feed-sequence {
      font-size:.65rem;
      margin-bottom:.5rem;
      color:var(--ink-mid);
    }
    .feed-meta {
      margin-top:.8rem;
      display:flex;
      flex-wrap:wrap;
      gap:.4rem;
    }
    .feed-meta-pill {
      font-size:.55rem;
      padding:.25rem .5rem;
      background:var(--panel);
      border:1px solid var(--ink-soft);
    }
    @media (max-width:640px) {
      body { padding:1rem; }
      #app {
        padding:1.2rem;
        grid-template-columns:1fr;
      }
      header { flex-direction:column; align-items:flex-start; }
      .sequence-grid { grid-template-columns:1fr; }
      .feed-sidebar { max-height:400px; }
    }
  </style>
</head>
<body>
  <div id="app">
    <div class="main-content">
      <header>
        <div>
          <p class="eyebrow">shadowmine · sequence verdicts</p>
        </div>
        <div id="sse-status" class="status">Connecting…</div>
      </header>
      <section id="sequences" class="sequence-grid">
        <div id="emptyState" class="empty-state">Waiting for verdicts…</div>
      </section>
    </div>
    <aside class="feed-sidebar">
      <h3 class="sidebar-title">Live verdicts</h3>
      <div id="feed"></div>
    </aside>
  </div>
<script>
const statusEl = document.getElementById('sse-status');
const sequenceContainer = document.getElementById('sequences');
const emptyState = document.getElementById('emptyState');
const feedContainer = document.getElementById('feed');
const sequenceViews = new Map();
const MAX_FEED = 50;

const detectorTitles = {
  phi_ratio: 'Phi-ratio enrichment',
  fibonacci: 'Fibonacci likeness',
  coherence: 'Geometric coherence',
  field_coupling: 'Field coupling',
  cross_coupling: 'Cross-coupling'
};

const titleFor = (kind) => detectorTitles[kind] || kind || '—';

const bandClass = (interpretation) => {
  switch(interpretation){
    case 'HIGH': return 'band-high';
    case 'MODERATE': return 'band-moderate';
    default: return 'band-low';
  }
};

const formatScore = (score) => {
  const num = parseFloat(score);
  return Number.isFinite(num) ? num.toFixed(3) : '—';
};

const formatTs = (ts) => {
  if(!ts){ return ''; }
  const date = new Date(ts);
  if(Number.isNaN(date.getTime())){ return ''; }
  return date.toLocaleTimeString([], { hour12:false });
};

function ensureSequenceView(name){
  if(sequenceViews.has(name)){
    return sequenceViews.get(name);
  }

  if(emptyState){
    emptyState.remove();
  }

  const card = document.createElement('article');
  card.className = 'sequence-card';

  const header = document.createElement('div');
  header.className = 'sequence-card-header';
  const title = document.createElement('h2');
  title.className = 'sequence-name';
  title.textContent = name;
  const updated = document.createElement('span');
  updated.className = 'pill muted';
  updated.textContent = 'Waiting…';
  header.append(title, updated);

  card.appendChild(header);
  sequenceContainer.appendChild(card);

  const view = {
    card: card,
    updatedEl: updated,
    rows: new Map()
  };
  sequenceViews.set(name, view);
  return view;
}

function ensureDetectorRow(view, kind){
  if(view.rows.has(kind)){
    return view.rows.get(kind);
  }

  const row = document.createElement('div');
  row.className = 'detector-row';

  const label = document.createElement('div');
  label.className = 'detector-name';
  label.textContent = titleFor(kind);

  const score = document.createElement('div');
  score.className = 'detector-score';
  score.textContent = '—';

  const band = document.createElement('span');
  band.className = 'pill band-low';
  band.textContent = 'LOW';

  row.append(label, score, band);
  view.card.appendChild(row);

  const entry = { scoreEl: score, bandEl: band };
  view.rows.set(kind, entry);
  return entry;
}

function renderVerdict(view, verdict, ts){
  const row = ensureDetectorRow(view, verdict.kind);
  row.scoreEl.textContent = formatScore(verdict.score);
  row.bandEl.className = 'pill ' + bandClass(verdict.interpretation) + (verdict.significant ? ' hit' : '');
  row.bandEl.textContent = (verdict.interpretation || 'LOW') + (verdict.significant ? ' ✓' : '');
  const stamp = formatTs(ts);
  view.updatedEl.textContent = stamp || 'Waiting…';
}

function appendFeedCard(payload){
  const verdict = payload.verdict || {};

  const card = document.createElement('div');
  card.className = 'feed-card';

  const header = document.createElement('div');
  header.className = 'feed-card-header';

  const detector = document.createElement('div');
  detector.className = 'feed-detector ' + bandClass(verdict.interpretation);
  detector.textContent = titleFor(verdict.kind);

  const time = document.createElement('div');
  time.className = 'feed-time';
  time.textContent = formatTs(payload.ts);

  header.append(detector, time);
  card.appendChild(header);

  const sequence = document.createElement('div');
  sequence.className = 'feed-sequence';
  sequence.textContent = payload.sequence || '—';
  card.appendChild(sequence);

  const meta = document.createElement('div');
  meta.className = 'feed-meta';

  const score = document.createElement('span');
  score.className = 'feed-meta-pill';
  score.textContent = 'Score: ' + formatScore(verdict.score);
  meta.appendChild(score);

  if(verdict.significant){
    const hit = document.createElement('span');
    hit.className = 'feed-meta-pill';
    hit.textContent = 'significant';
    meta.appendChild(hit);
  }

  const stats = verdict.stats || {};
  if(stats.sample_size){
    const size = document.createElement('span');
    size.className = 'feed-meta-pill';
    size.textContent = 'n=' + stats.sample_size;
    meta.appendChild(size);
  }

  card.appendChild(meta);

  feedContainer.insertBefore(card, feedContainer.firstChild);
  while(feedContainer.children.length > MAX_FEED){
    feedContainer.removeChild(feedContainer.lastChild);
  }
}

function handleEvent(payload){
  const verdict = payload.verdict || {};
  if(verdict.kind){
    const view = ensureSequenceView(payload.sequence || '—');
    renderVerdict(view, verdict, payload.ts);
  }
  appendFeedCard(payload);
}

function connectSSE(){
  const source = new EventSource('/verdicts/stream');
  statusEl.textContent = 'Status: receiving data';
  source.addEventListener('verdict', (event) => {
    try{
      const payload = JSON.parse(event.data);
      handleEvent(payload);
    }catch(err){
      console.error('payload parse', err);
    }
  });
  source.addEventListener('error', () => {
    statusEl.textContent = 'Reconnecting…';
    source.close();
    setTimeout(connectSSE, 2000);
  });
}

connectSSE();
</script>
</body>
</html>`
