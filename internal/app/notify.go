package app

import (
	"fmt"
	"log/slog"
)

// Notifier shows short messages to the user.
type Notifier interface {
	Notify(msg string)
}

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(route string)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(msg string)

func (f NotifyFunc) Notify(msg string) { f(msg) }

// NavigateFunc adapts a function to Navigator.
type NavigateFunc func(route string)

func (f NavigateFunc) Navigate(route string) { f(route) }

const (
	RouteHome         = ""
	RouteLogin        = "/login"
	RouteSessions     = "/jam-session"
	RouteMySessions   = "/my-jam-sessions"
	RouteNewSession   = "/new-jam-session"
	RouteAdminPanel   = "/admin-panel"
	RouteRegistration = "/register"
)

// ProfileRoute is the profile screen of userID.
func ProfileRoute(userID int64) string {
	return fmt.Sprintf("/profile?userId=%d", userID)
}

// SessionPageRoute is the detail screen of a session.
func SessionPageRoute(sessionID int64) string {
	return fmt.Sprintf("/jam-session-page/%d", sessionID)
}

type logNotifier struct{}

func (logNotifier) Notify(msg string) { slog.Info("notify", "message", msg) }

type logNavigator struct{}

func (logNavigator) Navigate(route string) { slog.Debug("navigate", "route", route) }

// Messages shown through the Notifier.
const (
	MsgNoInternet        = "No internet connection"
	MsgUnreachable       = "Cannot connect to the server"
	MsgServerError       = "Server Error. Please try again later."
	MsgLoginFailed       = "Login failed. Please check your credentials."
	MsgLoggedOut         = "You have been logged out"
	MsgSessionExpired    = "Session has expired"
	MsgEmailTaken        = "User with given email already exists"
	MsgSignedUp          = "Successfully signed up for this Jam Session!"
	MsgSignUpFailed      = "Failed to sign up. Please try again."
	MsgAlreadySignedUp   = "You are already signed up for this jam session. You can only sign up for one instrument per session."
	MsgNoInstruments     = "You don't have any instruments listed in your profile. Please add instruments to your profile first."
	MsgSlotFull          = "All slots for this instrument are already taken."
	MsgLeft              = "Successfully left the Jam Session"
	MsgLeaveFailed       = "Failed to leave session"
	MsgRemoveFailed      = "Failed to remove participant"
	MsgGenreInUse        = "This music genre cannot be deleted because it is currently in use"
	MsgInstrumentInUse   = "This instrument cannot be deleted because it is currently in use"
	MsgGenreExists       = "CAN NOT ADD THIS GENRE IT ALREADY EXISTS"
	MsgInstrumentExists  = "CAN NOT ADD THIS INSTRUMENT IT ALREADY EXISTS"
	MsgImageUpdated      = "Profile image updated successfully"
	MsgImageFailed       = "Error updating image"
	MsgWrongImageFormat  = "Wrong file format! Only JPG, PNG or JPEG are allowed"
	MsgRatingInSession   = "Cannot delete instrument because you are signed up for a session with it"
	MsgCommentDeleted    = "Comment deleted successfully"
	MsgCommentDeleteFail = "Failed to delete comment"
)

func msgInstrumentNotInProfile(name string) string {
	return fmt.Sprintf("You don't have %s listed in your profile. Please add it to your profile first.", name)
}

func msgParticipantRemoved(name string) string {
	return fmt.Sprintf("%s has been removed from the jam session", name)
}
