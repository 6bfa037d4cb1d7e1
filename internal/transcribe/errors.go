package transcribe

import "errors"

// ErrUnintelligible indicates the service heard audio but returned no words.
var ErrUnintelligible = errors.New("speech not understood")
