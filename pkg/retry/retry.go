package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries actions according to a fixed set of strategies.
type Retrier interface {
	Retry(action Action) (attempts uint, err error)
}

type retrier []Strategy

// NewRetrier returns a Retrier applying strategies in order after every
// failed attempt. Without strategies it retries until the action succeeds.
func NewRetrier(strategies ...Strategy) Retrier {
	return retrier(strategies)
}

func (r retrier) Retry(action Action) (uint, error) {
	return Retry(action, r...)
}

// Retry runs action until it succeeds or a strategy declines another attempt,
// returning the number of attempts made and the last error. Strategies that
// sleep should come last so that declining strategies short circuit them.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil {
			return attempts, nil
		}

		for _, shouldRetry := range strategies {
			if !shouldRetry(attempts, err) {
				return attempts, err
			}
		}
	}
}
