package syscallbridge

import "testing"

func TestToErrnoMatchesFixedMapping(t *testing.T) {
	cases := map[ResultCode]int32{
		ResultSuccess:         0,
		ResultNotFound:        -2,
		ResultAlreadyExists:   -17,
		ResultAccessDenied:    -13,
		ResultInvalidArgument: -22,
		ResultNotEmpty:        -39,
		ResultNoSpace:         -28,
		ResultIOError:         -5,
		ResultReadOnly:        -30,
		ResultNotADirectory:   -20,
		ResultIsADirectory:    -21,
		ResultTooManyOpen:     -24,
		ResultNameTooLong:     -36,
		ResultBadHandle:       -9,
		ResultNotSupported:    -38,
	}
	for code, want := range cases {
		if got := code.ToErrno(); got != want {
			t.Errorf("ResultCode(%d).ToErrno() = %d, want %d", code, got, want)
		}
	}
}

func TestToErrnoDefaultsToIOErrorForUnknownCode(t *testing.T) {
	unknown := ResultCode(999)
	if got := unknown.ToErrno(); got != -5 {
		t.Fatalf("unknown code: ToErrno() = %d, want -5", got)
	}
}
