package shortcode

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// channelBufferSize is how many pre-screened codes are kept ready.
	channelBufferSize = 1000
	// minFillThreshold triggers a background refill.
	minFillThreshold = 100
	// preScreenAttempts bounds the uniqueness pre-check per candidate.
	preScreenAttempts = 10
)

// AvailabilityChecker reports whether a code is currently held by an
// active record.
type AvailabilityChecker interface {
	CodeInUse(code string) (bool, error)
}

// Generator hands out candidate short codes. A background task keeps a
// buffer of pre-screened codes warm; when the buffer is empty Next
// falls back to generating synchronously, so callers never block.
//
// Pre-screening only keeps collisions rare. The store's unique index
// is what actually arbitrates two workers racing on one candidate.
type Generator struct {
	alphabet string
	length   int
	checker  AvailabilityChecker

	codeChan  chan string
	mu        sync.Mutex
	isFilling bool
	stopChan  chan struct{}
	logger    *zap.SugaredLogger
}

// NewGenerator creates a Generator drawing codes of the given length
// from alphabet.
func NewGenerator(alphabet string, length int, checker AvailabilityChecker, logger *zap.SugaredLogger) *Generator {
	return &Generator{
		alphabet: alphabet,
		length:   length,
		checker:  checker,
		codeChan: make(chan string, channelBufferSize),
		stopChan: make(chan struct{}),
		logger:   logger.Named("shortcode"),
	}
}

// Start launches the background fill and refill tasks.
func (g *Generator) Start() {
	go g.fillChannel()
	go g.monitorAndRefill()
}

// Stop shuts down the background tasks.
func (g *Generator) Stop() {
	close(g.stopChan)
}

// Next returns a candidate code: a buffered pre-screened one when
// available, otherwise a fresh random draw.
func (g *Generator) Next() (string, error) {
	select {
	case code := <-g.codeChan:
		return code, nil
	default:
		return g.randomCode()
	}
}

func (g *Generator) monitorAndRefill() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if len(g.codeChan) < minFillThreshold {
				g.fillChannel()
			}
		case <-g.stopChan:
			return
		}
	}
}

func (g *Generator) fillChannel() {
	g.mu.Lock()
	if g.isFilling {
		g.mu.Unlock()
		return
	}
	g.isFilling = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.isFilling = false
		g.mu.Unlock()
	}()

	g.logger.Debugf("refilling code buffer, %d remaining", len(g.codeChan))
	for len(g.codeChan) < channelBufferSize {
		select {
		case <-g.stopChan:
			return
		default:
			code, err := g.preScreenedCode()
			if err != nil {
				g.logger.Errorf("generating code: %v", err)
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if code != "" {
				g.codeChan <- code
			}
		}
	}
}

// preScreenedCode draws random codes until one is free of an active
// record, giving up after preScreenAttempts. An empty result means the
// space looked crowded; the fill loop just tries again.
func (g *Generator) preScreenedCode() (string, error) {
	for i := 0; i < preScreenAttempts; i++ {
		code, err := g.randomCode()
		if err != nil {
			return "", err
		}
		inUse, err := g.checker.CodeInUse(code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	g.logger.Warnf("%d consecutive collisions pre-screening codes", preScreenAttempts)
	return "", nil
}

func (g *Generator) randomCode() (string, error) {
	b := make([]byte, g.length)
	max := big.NewInt(int64(len(g.alphabet)))
	for i := range b {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = g.alphabet[num.Int64()]
	}
	return string(b), nil
}
