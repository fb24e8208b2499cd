package session

import "strings"

// View is everything a display shows for a session.
type View struct {
	Status       Status `json:"-"`
	StatusName   string `json:"status"`
	StatusText   string `json:"statusText"`
	Recording    bool   `json:"recording"`
	StartEnabled bool   `json:"startEnabled"`
	StopEnabled  bool   `json:"stopEnabled"`
	Language     string `json:"language"`
	Transcript   string `json:"transcript"`
	Speaking     string `json:"speaking"`
}

// Text is the transcript region: the accumulated blocks followed by what
// is currently being spoken.
func (v View) Text() string {
	if v.Speaking == "" {
		return v.Transcript
	}
	var sb strings.Builder
	sb.WriteString(v.Transcript)
	sb.WriteString("Speaking: ")
	sb.WriteString(v.Speaking)
	return sb.String()
}

// UnsupportedView is shown when no recognition engine can be provided.
func UnsupportedView(language string) View {
	return View{
		Status:     StatusUnsupported,
		StatusName: StatusUnsupported.String(),
		StatusText: StatusUnsupported.Message(),
		Language:   language,
	}
}

// Display receives a View after every state change. Show is called with
// the session locked: it must not block or call back into the session.
type Display interface {
	Show(View)
}

type DisplayFunc func(View)

func (f DisplayFunc) Show(v View) {
	f(v)
}

type nopDisplay struct{}

func (nopDisplay) Show(View) {}
