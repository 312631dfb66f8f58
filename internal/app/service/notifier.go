package service

import (
	"sync"
	"time"

	"github.com/ikkim/must-canteen/internal/app/model"
)

// Notifier receives user-facing outcome messages. Notify must not block.
type Notifier interface {
	Notify(notice model.Notice)
}

// Navigator is told about identity transitions so the client can redirect.
// A nil profile means the session was logged out.
type Navigator interface {
	IdentityChanged(profile *model.UserProfile)
}

// NoticeRecorder buffers notices until the transport drains them into a response.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []model.Notice
}

func NewNoticeRecorder() *NoticeRecorder {
	return &NoticeRecorder{}
}

func (r *NoticeRecorder) Notify(notice model.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// Drain returns the buffered notices in arrival order and empties the buffer.
func (r *NoticeRecorder) Drain() []model.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	if out == nil {
		out = []model.Notice{}
	}
	return out
}

// MultiNotifier fans a notice out to every non-nil notifier.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(notice model.Notice) {
	for _, n := range m {
		if n != nil {
			n.Notify(notice)
		}
	}
}

type nopNavigator struct{}

func (nopNavigator) IdentityChanged(*model.UserProfile) {}

func newNotice(severity model.Severity, message string) model.Notice {
	return model.Notice{Message: message, Severity: severity, At: time.Now()}
}

func notifySuccess(n Notifier, message string) { n.Notify(newNotice(model.SeveritySuccess, message)) }
func notifyError(n Notifier, message string)   { n.Notify(newNotice(model.SeverityError, message)) }
func notifyInfo(n Notifier, message string)    { n.Notify(newNotice(model.SeverityInfo, message)) }
