package automations

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/graph"
)

const (
	UsernamePlaceholder = "{{username}}"

	defaultUsername       = "there"
	defaultFollowButton   = "I'm following"
	followConfirmedAction = "FOLLOW_CONFIRMED"
)

// TemplatePicker chooses one template uniformly at random. It is safe for
// concurrent use.
type TemplatePicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplatePicker uses rng, or a time-seeded source when rng is nil.
func NewTemplatePicker(rng *rand.Rand) *TemplatePicker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TemplatePicker{rng: rng}
}

func (p *TemplatePicker) Pick(templates []string) (string, bool) {
	if len(templates) == 0 {
		return "", false
	}
	p.mu.Lock()
	idx := p.rng.Intn(len(templates))
	p.mu.Unlock()
	return templates[idx], true
}

// RenderText substitutes the sender's username into template.
func RenderText(template, username string) string {
	if strings.TrimSpace(username) == "" {
		username = defaultUsername
	}
	return strings.ReplaceAll(template, UsernamePlaceholder, username)
}

// BuildMessage returns plain text when no usable buttons remain, otherwise a
// button template with at most three buttons.
func BuildMessage(text string, buttons []Button, calendarURL string) graph.Message {
	out := make([]graph.Button, 0, len(buttons))
	for _, b := range buttons {
		if len(out) == maxButtons {
			break
		}
		if gb, ok := toGraphButton(b, calendarURL); ok {
			out = append(out, gb)
		}
	}
	if len(out) == 0 {
		return graph.TextMessage(text)
	}
	return graph.ButtonMessage(text, out)
}

func toGraphButton(b Button, calendarURL string) (graph.Button, bool) {
	switch b.Kind {
	case enums.ButtonKindWebURL:
		if b.URL == "" {
			return graph.Button{}, false
		}
		return graph.Button{Type: string(enums.ButtonKindWebURL), Title: b.Text, URL: b.URL}, true
	case enums.ButtonKindPostback:
		payload := b.Payload
		if payload == "" {
			payload = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(b.Text), " ", "_"))
		}
		return graph.Button{Type: string(enums.ButtonKindPostback), Title: b.Text, Payload: payload}, true
	case enums.ButtonKindCalendar:
		url := calendarURL
		if url == "" {
			url = b.URL
		}
		if url == "" {
			return graph.Button{}, false
		}
		return graph.Button{Type: string(enums.ButtonKindWebURL), Title: b.Text, URL: url}, true
	}
	return graph.Button{}, false
}

func followButton(text string) Button {
	if strings.TrimSpace(text) == "" {
		text = defaultFollowButton
	}
	return Button{Text: text, Kind: enums.ButtonKindPostback, Payload: followConfirmedAction}
}
