//go:build unix

package publish

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMkfifoError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"eacces", unix.EACCES, ClassFatal},
		{"eperm", unix.EPERM, ClassFatal},
		{"wrapped eacces", fmt.Errorf("syscall: %w", unix.EACCES), ClassFatal},
		{"enospc", unix.ENOSPC, ClassTransient},
		{"enametoolong", unix.ENAMETOOLONG, ClassTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mkfifoError("/tmp/stats-pipe/1.stats", tt.err)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.want, Classify(err))
			require.Equal(t, tt.want == ClassFatal, errors.Is(err, ErrPermission))
		})
	}

	require.NoError(t, mkfifoError("/tmp/stats-pipe/1.stats", nil))

	var pathErr *os.PathError
	require.ErrorAs(t, mkfifoError("/tmp/stats-pipe/1.stats", unix.ENOSPC), &pathErr)
	require.Equal(t, "mkfifo", pathErr.Op)
}
