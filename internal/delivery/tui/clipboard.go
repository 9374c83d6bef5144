package tui

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// clipboardFadeDelay is how long the "Copied" notice stays visible.
const clipboardFadeDelay = 2 * time.Second

// clipboardFadeMsg clears the clipboard notice.
type clipboardFadeMsg struct{}

// copyToClipboard writes text to the system clipboard with an OSC 52
// escape sent straight to /dev/tty, then schedules the notice fade.
// Inside tmux the sequence is also wrapped in a DCS passthrough.
func copyToClipboard(text string) tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
			if err != nil {
				return nil
			}
			defer tty.Close()

			osc52 := fmt.Sprintf("\x1b]52;c;%s\x07", base64.StdEncoding.EncodeToString([]byte(text)))
			inTmux := os.Getenv("TMUX") != "" ||
				strings.HasPrefix(os.Getenv("TERM"), "tmux") ||
				strings.HasPrefix(os.Getenv("TERM"), "screen")
			if inTmux {
				fmt.Fprintf(tty, "\x1bPtmux;\x1b%s\x1b\\", osc52)
			}
			tty.WriteString(osc52)
			return nil
		},
		tea.Tick(clipboardFadeDelay, func(time.Time) tea.Msg {
			return clipboardFadeMsg{}
		}),
	)
}
