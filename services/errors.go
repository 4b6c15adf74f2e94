package services

import "errors"

// Typed failures returned by the attendance core. Controllers map these to
// stable machine-readable codes for devices and the dashboard; none of them
// are fatal; bad scans are discarded and logged, never crash the service.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomInactive      = errors.New("room inactive")
	ErrStudentNotFound   = errors.New("student not found")
	ErrNoActiveSession   = errors.New("no active session")
	ErrGroupMismatch     = errors.New("group mismatch")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotClosed  = errors.New("session not closed")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrInvalidMethod     = errors.New("invalid attendance method")
)
