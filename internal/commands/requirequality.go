package commands

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"peon/internal/logger"
	"peon/pkg/macrotypes"
)

var requireQualityRe = regexp.MustCompile(`(?i)^/requirequality\s+(\d+)\s*$`)

// RequireQualityCommand implements /requirequality N. It asks for a pause when
// the recipe window shows less quality than required.
type RequireQualityCommand struct {
	baseCommand
	required int
}

// ParseRequireQuality parses a /requirequality line.
func ParseRequireQuality(line string) (macrotypes.Command, error) {
	base, m, err := matchLine(requireQualityRe, line)
	if err != nil {
		return nil, err
	}
	quality, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &macrotypes.SyntaxError{Text: line, Reason: "invalid quality"}
	}
	return &RequireQualityCommand{baseCommand: base, required: quality}, nil
}

// Execute checks the displayed quality.
func (c *RequireQualityCommand) Execute(ctx context.Context, rt macrotypes.Runtime) (macrotypes.Outcome, error) {
	good, err := c.isQualityGood(ctx, rt.Environment())
	if err != nil {
		return macrotypes.Outcome{}, err
	}
	if !good {
		return macrotypes.PauseRequested("Required quality was not found", macrotypes.ColorRed), nil
	}
	return macrotypes.OK(), nil
}

func (c *RequireQualityCommand) isQualityGood(ctx context.Context, env macrotypes.Environment) (bool, error) {
	if _, present, err := env.QueryState(ctx, "addon:RecipeNote"); err != nil {
		return false, err
	} else if !present {
		logger.Error("RecipeNote addon was not visible")
		return false, nil
	}

	text, present, err := env.QueryState(ctx, "RecipeNote.Quality")
	if err != nil {
		return false, err
	}
	if !present {
		logger.Error("Quality node was missing")
		return false, nil
	}

	quality, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		logger.Error("Could not parse quality node", "text", text)
		return false, nil
	}

	return quality >= c.required, nil
}
