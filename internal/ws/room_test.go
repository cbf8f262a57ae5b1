package ws

import "testing"

func TestRoomNameSymmetry(t *testing.T) {
	if got, want := RoomName(7, 3), "3_7"; got != want {
		t.Fatalf("RoomName(7,3) = %q, want %q", got, want)
	}
	if RoomName(3, 7) != RoomName(7, 3) {
		t.Fatal("room name must not depend on argument order")
	}
}

func TestRoomNameNumericSort(t *testing.T) {
	// sorting is numeric, not lexicographic: 2 < 10 even though "10" < "2"
	if got, want := RoomName(10, 2), "2_10"; got != want {
		t.Fatalf("RoomName(10,2) = %q, want %q", got, want)
	}
}

func TestRoomNameDistinctPairs(t *testing.T) {
	seen := map[string][2]uint{}
	pairs := [][2]uint{{1, 2}, {1, 3}, {2, 3}, {12, 3}, {1, 23}}
	for _, p := range pairs {
		name := RoomName(p[0], p[1])
		if prev, ok := seen[name]; ok {
			t.Fatalf("pairs %v and %v collide on room %q", prev, p, name)
		}
		seen[name] = p
	}
}

func TestUserChannel(t *testing.T) {
	if got, want := UserChannel(42), "user_42"; got != want {
		t.Fatalf("UserChannel(42) = %q, want %q", got, want)
	}
}
