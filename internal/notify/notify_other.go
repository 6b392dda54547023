//go:build !windows

package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// BeeepNotifier sends native desktop notifications via beeep, which maps
// to libnotify/D-Bus on Linux and NSUserNotificationCenter on macOS.
type BeeepNotifier struct {
	AppName string
}

// NewNotifier constructs the platform notifier for non-Windows hosts.
func NewNotifier(appName string) Notifier {
	return BeeepNotifier{AppName: appName}
}

func (n BeeepNotifier) NotifyClipboardSynced(sourceDevice, preview string) error {
	title := n.AppName + " - Clipboard Synced"
	body := fmt.Sprintf("From %s:\n%s", sourceDevice, preview)
	return beeep.Notify(title, body, "")
}
