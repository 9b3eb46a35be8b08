package dashboard

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notice is a message that must be acknowledged by the user.
type Notice struct {
	Level Level
	Text  string
}

type Notifier func(Notice)

func (c *Controller) raise(level Level, text string) {
	n := Notice{Level: level, Text: text}
	c.mu.Lock()
	c.notice = n
	c.hasNotice = true
	notify := c.notifier
	c.mu.Unlock()
	if notify != nil {
		notify(n)
	}
}

// LastNotice returns the most recent notice that has not been dismissed.
func (c *Controller) LastNotice() (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice, c.hasNotice
}

func (c *Controller) DismissNotice() {
	c.mu.Lock()
	c.notice = Notice{}
	c.hasNotice = false
	c.mu.Unlock()
}
