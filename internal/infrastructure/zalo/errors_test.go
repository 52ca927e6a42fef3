package zalo

import (
	"errors"
	"testing"
)

func TestIsMessageBlockedError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("This user cannot receive message from you"), true},
		{errors.New("CANNOT RECEIVE MESSAGE FROM YOU"), true},
		{errors.New("user blocks messages from strangers"), false},
		{errors.New("timeout"), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := IsMessageBlockedError(c.err); got != c.want {
			t.Errorf("IsMessageBlockedError(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestIsStrangerBlockedError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("This user blocks messages from strangers"), true},
		{errors.New("user Blocks Messages From Strangers!"), true},
		{errors.New("cannot receive message from you"), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := IsStrangerBlockedError(c.err); got != c.want {
			t.Errorf("IsStrangerBlockedError(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
