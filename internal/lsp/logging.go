// Package lsp implements LSP protocol handlers.
package lsp

import (
	"os"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"isort-lsp/internal/server"
)

var log = commonlog.GetLogger("isort-lsp.lsp")

// NotificationEnv overrides the configured notification level when set.
const NotificationEnv = "LS_SHOW_NOTIFICATION"

// Notification levels, least to most chatty.
const (
	NotifyOff       = "off"
	NotifyOnError   = "onError"
	NotifyOnWarning = "onWarning"
	NotifyAlways    = "always"
)

// notificationLevel resolves the minimum severity at which log entries are
// mirrored to the client as window/showMessage notifications.
func notificationLevel() string {
	if value := os.Getenv(NotificationEnv); value != "" {
		return value
	}
	if srv, ok := serverInstance.(*server.Server); ok && srv != nil {
		if level := srv.Settings().Global().ShowNotifications; level != "" {
			return level
		}
	}
	return NotifyOff
}

func showNotification(context *glsp.Context, messageType protocol.MessageType, message string) {
	if context == nil || context.Notify == nil {
		return
	}
	context.Notify(protocol.ServerWindowShowMessage, &protocol.ShowMessageParams{
		Type:    messageType,
		Message: message,
	})
}

// logError logs at error level and notifies the client when the configured
// level admits errors.
func logError(context *glsp.Context, message string) {
	log.Error(message)
	notifyError(context, message)
}

// notifyError raises an error notification without writing a log entry, for
// failures already logged at a lower layer.
func notifyError(context *glsp.Context, message string) {
	switch notificationLevel() {
	case NotifyOnError, NotifyOnWarning, NotifyAlways:
		showNotification(context, protocol.MessageTypeError, message)
	}
}

// logWarning logs at warning level and notifies the client when the
// configured level admits warnings.
func logWarning(context *glsp.Context, message string) {
	log.Warning(message)
	switch notificationLevel() {
	case NotifyOnWarning, NotifyAlways:
		showNotification(context, protocol.MessageTypeWarning, message)
	}
}

// logAlways logs at info level and notifies the client only at the most
// chatty level.
func logAlways(context *glsp.Context, message string) {
	log.Info(message)
	if notificationLevel() == NotifyAlways {
		showNotification(context, protocol.MessageTypeInfo, message)
	}
}
