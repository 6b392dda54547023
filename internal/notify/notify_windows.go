//go:build windows

package notify

import (
	"fmt"

	"gopkg.in/toast.v1"
)

// ToastNotifier sends native Windows toast notifications.
type ToastNotifier struct {
	AppName string
}

// NewNotifier constructs the platform notifier for Windows hosts.
func NewNotifier(appName string) Notifier {
	return ToastNotifier{AppName: appName}
}

func (n ToastNotifier) NotifyClipboardSynced(sourceDevice, preview string) error {
	notification := toast.Notification{
		AppID:   n.AppName,
		Title:   n.AppName + " - Clipboard Synced",
		Message: fmt.Sprintf("From %s:\n%s", sourceDevice, preview),
	}
	return notification.Push()
}
