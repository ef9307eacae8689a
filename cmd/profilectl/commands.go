package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	profiles "github.com/goliatone/go-profiles"
	"github.com/goliatone/go-profiles/pkg/cache"
	"github.com/goliatone/go-profiles/pkg/client"
	"github.com/goliatone/go-profiles/pkg/segment"
	"github.com/goliatone/go-profiles/pkg/state"
)

func runLoad(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: profilectl load <id>...", errUsage)
	}
	loaded, err := e.client.LoadProfiles(ctx, args)
	if err != nil {
		return err
	}
	records := make([]any, 0, len(loaded))
	for i, p := range loaded {
		if p == nil {
			e.log.WithField("profile_id", args[i]).Warn("profile not found")
			continue
		}
		records = append(records, p.Serialize(false))
	}
	if len(args) == 1 && len(records) == 1 {
		return e.print(records[0])
	}
	return e.print(records)
}

func runSave(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("save")
	attrs := fs.StringArrayP("attr", "a", nil, "attribute as app/section/name=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 1, "save <id> --attr app/section/name=value"); err != nil {
		return err
	}
	if len(*attrs) == 0 {
		return fmt.Errorf("%w: at least one --attr is required", errUsage)
	}
	records := make([]profiles.AttributeRecord, 0, len(*attrs))
	for _, raw := range *attrs {
		record, err := parseAttribute(raw)
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	resolver := state.Resolver{Store: state.NewRemoteStore(e.client), Logger: e.log}
	saved, _, err := resolver.Mutate(ctx, fs.Arg(0), func(p *profiles.Profile) error {
		inputs := make([]profiles.AttributeInput, 0, len(records))
		for _, record := range records {
			inputs = append(inputs, record)
		}
		return p.SetAttributes(inputs)
	})
	if err != nil {
		return err
	}
	return e.print(saved.Serialize(false))
}

func runDelete(ctx context.Context, e *env, args []string) error {
	if err := requireArgs(args, 1, "delete <id>"); err != nil {
		return err
	}
	if err := state.NewRemoteStore(e.client).Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "deleted %s\n", args[0])
	return nil
}

func runMerge(ctx context.Context, e *env, args []string) error {
	if err := requireArgs(args, 2, "merge <id> <other>"); err != nil {
		return err
	}
	merged, err := e.client.MergeProfiles(ctx, profiles.CreateProfile(args[0]), profiles.CreateProfile(args[1]))
	if err != nil {
		return err
	}
	if merged == nil {
		fmt.Fprintf(e.stdout, "merged %s into %s\n", args[1], args[0])
		return nil
	}
	return e.print(merged.Serialize(false))
}

func runSettings(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("settings")
	sets := fs.StringArray("set", nil, "setting as key=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(*sets) == 0 {
		settings, err := e.client.AppSettings(ctx)
		if err != nil {
			return err
		}
		return e.print(settings)
	}

	settings, err := e.client.AppSettings(ctx)
	if err != nil && !errors.Is(err, client.ErrSettingsNotFound) {
		return err
	}
	if settings == nil {
		settings = map[string]any{}
	}
	for _, raw := range *sets {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || key == "" {
			return fmt.Errorf("%w: --set expects key=value, got %q", errUsage, raw)
		}
		settings[key] = parseValue(value)
	}
	if err := e.client.SetAppSettings(ctx, settings); err != nil {
		return err
	}
	return e.print(settings)
}

func runSegments(ctx context.Context, e *env, args []string) error {
	if err := requireArgs(args, 0, "segments"); err != nil {
		return err
	}
	segments, err := e.client.Segments(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].ID < segments[j].ID })
	return e.print(segments)
}

func runEvaluate(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("evaluate")
	segmentID := fs.String("segment-id", "", "evaluate against a stored segment")
	iql := fs.String("iql", "", "evaluate an IQL rule")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 1, "evaluate <id> (--segment-id id | --iql rule)"); err != nil {
		return err
	}
	profile := profiles.CreateProfile(fs.Arg(0))

	var (
		result bool
		err    error
	)
	switch {
	case *segmentID != "" && *iql != "":
		return fmt.Errorf("%w: --segment-id and --iql are exclusive", errUsage)
	case *segmentID != "":
		result, err = e.client.EvaluateProfileBySegmentID(ctx, profile, *segmentID)
	case *iql != "":
		result, err = e.client.EvaluateProfileByIQL(ctx, profile, *iql)
	default:
		return fmt.Errorf("%w: one of --segment-id or --iql is required", errUsage)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, result)
	return nil
}

func runMatch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("match")
	expression := fs.StringP("expr", "e", "", "rule expression")
	engine := fs.String("engine", segment.EngineExpr, "rule engine: expr, cel or js")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 1, "match <id> --expr rule [--engine expr|cel|js]"); err != nil {
		return err
	}
	if *expression == "" {
		return fmt.Errorf("%w: --expr is required", errUsage)
	}
	profile, err := e.client.LoadProfile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("profile %q not found", fs.Arg(0))
	}
	return match(e, profile, *engine, *expression)
}

func runStream(_ context.Context, e *env, args []string) error {
	fs := newFlagSet("stream")
	expression := fs.StringP("expr", "e", "", "also evaluate a rule against the streamed profile")
	engine := fs.String("engine", segment.EngineExpr, "rule engine: expr, cel or js")
	if err := fs.Parse(args); err != nil {
		return err
	}
	raw, err := io.ReadAll(e.stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	profile, err := e.client.ProfileFromRequest(raw)
	if err != nil {
		return err
	}
	if *expression != "" {
		return match(e, profile, *engine, *expression)
	}
	return e.print(profile.Serialize(false))
}

func runTasks(ctx context.Context, e *env, args []string) error {
	if err := requireArgs(args, 0, "tasks"); err != nil {
		return err
	}
	tasks, err := e.client.Tasks(ctx)
	if err != nil {
		return err
	}
	return e.print(tasks)
}

func match(e *env, profile *profiles.Profile, engine, expression string) error {
	matcher, err := segment.NewMatcher(
		segment.WithEngine(engine),
		segment.WithProgramCache(cache.NewMemory()),
		segment.WithEvaluatorLogger(segment.LogrusEvaluatorLogger(e.log)),
	)
	if err != nil {
		return err
	}
	ok, err := matcher.Match(profile, expression)
	if err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"profile_id": profile.ID(), "engine": matcher.Engine()}).Debug("match done")
	fmt.Fprintln(e.stdout, ok)
	return nil
}

// parseAttribute reads app/section/name=value.
func parseAttribute(raw string) (profiles.AttributeRecord, error) {
	path, value, ok := strings.Cut(raw, "=")
	if !ok {
		return profiles.AttributeRecord{}, fmt.Errorf("%w: --attr expects app/section/name=value, got %q", errUsage, raw)
	}
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return profiles.AttributeRecord{}, fmt.Errorf("%w: --attr expects app/section/name=value, got %q", errUsage, raw)
	}
	return profiles.AttributeRecord{
		CollectApp: parts[0],
		Section:    parts[1],
		Name:       parts[2],
		Value:      parseValue(value),
	}, nil
}

// parseValue decodes JSON literals and falls back to the raw string.
func parseValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err == nil && value != nil {
		return value
	}
	return raw
}

func (e *env) print(value any) error {
	if e.output == "yaml" {
		return printYAML(e.stdout, value)
	}
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// printYAML goes through JSON first so records keep their wire field names.
func printYAML(w io.Writer, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
