package logging

import (
	"log/slog"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/track"
)

// TrackID renders a track id attribute.
func TrackID(id track.ID) slog.Attr { return slog.String(FieldTrackID, id.String()) }

// Op renders an operation attribute.
func Op(op errmsg.Op) slog.Attr { return slog.String(FieldOp, string(op)) }

// Error renders err together with its taxonomy kind.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Group("", slog.Any("error", err), slog.String(FieldKind, errmsg.Kind(err)))
}
