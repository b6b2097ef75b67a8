package notify

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer 把需要告知行程主人的通知转换成邮件，其余通知只记录日志
type Mailer struct {
	from        string
	timelineURL string
}

func NewMailer(from, timelineURL string) *Mailer {
	return &Mailer{
		from:        from,
		timelineURL: timelineURL,
	}
}

func (m *Mailer) link(tripID int64) string {
	if m.timelineURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/trips/%d/timeline", m.timelineURL, tripID)
}

// Build 返回 nil 表示这条通知不需要发邮件
func (m *Mailer) Build(n domain.Notification) (*mail.Msg, error) {
	if n.To == "" {
		return nil, nil
	}

	var (
		name    string
		subject string
		data    any
	)
	switch n.Type {
	case domain.NotificationConflictsChanged:
		counts, err := decodeData[domain.ConflictsChangedData](n.Data)
		if err != nil {
			return nil, err
		}
		name = "conflicts_changed.html"
		subject = fmt.Sprintf("行程「%s」- 时间冲突变化", n.TripName)
		data = domain.ConflictsMailData{TripName: n.TripName, Previous: counts.Previous, Current: counts.Current, Link: m.link(n.TripID)}
	case domain.NotificationSnapFailed:
		name = "snap_failed.html"
		subject = fmt.Sprintf("行程「%s」- 衔接失败", n.TripName)
		data = domain.SnapFailedMailData{TripName: n.TripName, Message: n.Message, Link: m.link(n.TripID)}
	default:
		return nil, nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, err
	}
	if err := msg.To(n.To); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	if err := msg.SetBodyHTMLTemplate(templates.Lookup(name), data); err != nil {
		return nil, err
	}

	return msg, nil
}
