// Package log holds the slog attribute constructors shared by guidepost components,
// so the same keys are used everywhere a step, interaction or component is logged.
package log

import (
	"log/slog"

	"github.com/aretw0/guidepost/pkg/domain"
)

func RunID[T ~string](id T) slog.Attr {
	return slog.String("run_id", string(id))
}

func Step[T ~string](name T) slog.Attr {
	return slog.String("step", string(name))
}

func Kind[T ~string](kind T) slog.Attr {
	return slog.String("kind", string(kind))
}

func Component[T ~string](name T) slog.Attr {
	return slog.String("component", string(name))
}

func Resource[T ~string](name T) slog.Attr {
	return slog.String("resource", string(name))
}

func Watcher[T ~string](name T) slog.Attr {
	return slog.String("watcher", string(name))
}

// Interaction groups the fields of an interaction.
func Interaction(in domain.Interaction) slog.Attr {
	return slog.Group("interaction",
		slog.String("kind", in.Kind),
		slog.String("subject", in.Subject),
		slog.String("arguments", in.Arguments))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
