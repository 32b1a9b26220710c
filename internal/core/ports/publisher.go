package ports

import "context"

// Publisher writes rendered configuration to its target when it differs
// from what is already there.
type Publisher interface {
	Publish(ctx context.Context, content string) (changed bool, err error)
}

// TemplateSource provides the static preamble prepended to the rendered users.
type TemplateSource interface {
	Template(ctx context.Context) (string, error)
}
