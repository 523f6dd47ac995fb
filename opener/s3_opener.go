package opener

// s3OpenerFactory is registered under the "s3" scheme so OpenerFromSpec
// can tell "recognized scheme, not wired up" apart from "unknown scheme
// entirely": an s3:// source spec fails with a typed, explicit error
// instead of falling through to the file opener or an ambiguous "unknown
// scheme" message.
func s3OpenerFactory(spec string) ([]Opener, error) {
	return nil, &UnsupportedSchemeError{Scheme: string(schemeS3), Spec: spec}
}

// UnsupportedSchemeError reports a source specification whose scheme is
// recognized but has no working implementation in this build.
type UnsupportedSchemeError struct {
	Scheme string
	Spec   string
}

func (e *UnsupportedSchemeError) Error() string {
	return "opener: scheme " + e.Scheme + " is recognized but not implemented (spec " + e.Spec + ")"
}
