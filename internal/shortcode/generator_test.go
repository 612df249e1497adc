package shortcode_test

import (
	"strings"
	"testing"
	"time"

	"linkcycle/internal/config"
	"linkcycle/internal/shortcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type checkerFunc func(code string) (bool, error)

func (f checkerFunc) CodeInUse(code string) (bool, error) { return f(code) }

func neverInUse(string) (bool, error) { return false, nil }

func TestNext_WithoutStart(t *testing.T) {
	gen := shortcode.NewGenerator(config.DefaultAlphabet, 6, checkerFunc(neverInUse), zap.NewNop().Sugar())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := gen.Next()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(config.DefaultAlphabet, r), "rune %q outside alphabet", r)
		}
		seen[code] = true
	}
	// 62^6 draws; a repeat within 50 would be astonishing.
	assert.Greater(t, len(seen), 45)
}

func TestNext_HonorsAlphabetAndLength(t *testing.T) {
	gen := shortcode.NewGenerator("ab", 10, checkerFunc(neverInUse), zap.NewNop().Sugar())

	code, err := gen.Next()
	require.NoError(t, err)
	assert.Len(t, code, 10)
	for _, r := range code {
		assert.Contains(t, "ab", string(r))
	}
}

func TestBackgroundFill_ServesPreScreenedCodes(t *testing.T) {
	screened := make(chan string, 2000)
	checker := checkerFunc(func(code string) (bool, error) {
		select {
		case screened <- code:
		default:
		}
		return false, nil
	})

	gen := shortcode.NewGenerator(config.DefaultAlphabet, 6, checker, zap.NewNop().Sugar())
	gen.Start()
	defer gen.Stop()

	// The fill loop consults the checker for every buffered code.
	assert.Eventually(t, func() bool {
		return len(screened) > 0
	}, 2*time.Second, 10*time.Millisecond)

	code, err := gen.Next()
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestStop_Terminates(t *testing.T) {
	gen := shortcode.NewGenerator(config.DefaultAlphabet, 6, checkerFunc(neverInUse), zap.NewNop().Sugar())
	gen.Start()
	gen.Stop()

	// Next still works after shutdown via the synchronous fallback.
	code, err := gen.Next()
	require.NoError(t, err)
	assert.Len(t, code, 6)
}
