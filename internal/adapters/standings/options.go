package standings

import "github.com/okian/edurate/pkg/logger"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *TreapStore) {
		if l != nil {
			s.log = l
		}
	}
}
