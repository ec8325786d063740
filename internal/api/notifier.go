package api

import "sync"

// Toast is one operator-facing notification produced while handling a
// request. The client renders these verbatim.
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// toastCollector gathers the workflow's notifications so the response can
// carry them back to the client.
type toastCollector struct {
	mu     sync.Mutex
	toasts []Toast
}

func newToastCollector() *toastCollector {
	return &toastCollector{}
}

func (tc *toastCollector) Success(msg string) { tc.add("success", msg) }
func (tc *toastCollector) Error(msg string)   { tc.add("error", msg) }
func (tc *toastCollector) Warning(msg string) { tc.add("warning", msg) }
func (tc *toastCollector) Info(msg string)    { tc.add("info", msg) }

func (tc *toastCollector) add(level, msg string) {
	tc.mu.Lock()
	tc.toasts = append(tc.toasts, Toast{Level: level, Message: msg})
	tc.mu.Unlock()
}

func (tc *toastCollector) All() []Toast {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	out := make([]Toast, len(tc.toasts))
	copy(out, tc.toasts)
	return out
}
