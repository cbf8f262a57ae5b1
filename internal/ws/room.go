package ws

import "fmt"

// RoomName returns the canonical conversation room for two users. The pair is
// sorted so both sides compute the same name; callers must reject a == b
// before getting here (a self-room is meaningless).
func RoomName(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// UserChannel returns the personal channel name a user's sessions are
// addressed by, independent of any conversation room.
func UserChannel(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}
