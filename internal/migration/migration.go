// Package migration copies every image from one storage backend into another,
// keeping the names, and optionally clears the source afterwards
package migration

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/UnendingLoop/ImageHost/internal/mwlogger"
	"github.com/dustin/go-humanize"
)

type Source interface {
	List(ctx context.Context) ([]model.FileInfo, error)
	Read(ctx context.Context, filename string) ([]byte, error)
	Delete(ctx context.Context, filename string) error
}

type Target interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

type Migrator struct {
	src Source
	dst Target
	out io.Writer
}

func NewMigrator(src Source, dst Target, out io.Writer) *Migrator {
	return &Migrator{src: src, dst: dst, out: out}
}

// Plan - что именно будет перенесено
type Plan struct {
	Files     []model.FileInfo
	TotalSize int64
}

type Failure struct {
	Filename string
	Err      error
}

type Report struct {
	Uploaded []string
	Failed   []Failure
	Deleted  []string
	// KeptSource - удаление запрошено, но пропущено из-за ошибок загрузки
	KeptSource   bool
	DeleteFailed []Failure
}

// Plan lists the source once; files are ordered by name so runs are reproducible.
func (m *Migrator) Plan(ctx context.Context) (*Plan, error) {
	files, err := m.src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list source files: %w", err)
	}

	slices.SortFunc(files, func(a, b model.FileInfo) int {
		return strings.Compare(a.Filename, b.Filename)
	})

	plan := &Plan{Files: files}
	for _, f := range files {
		plan.TotalSize += f.Size
	}
	return plan, nil
}

func (m *Migrator) PrintPlan(p *Plan, verbose bool) {
	fmt.Fprintf(m.out, "Found %d files to migrate\n", len(p.Files))
	fmt.Fprintf(m.out, "Total size: %s\n", humanize.IBytes(uint64(p.TotalSize)))
	if !verbose {
		return
	}
	for _, f := range p.Files {
		fmt.Fprintf(m.out, "  - %s (%s)\n", f.Filename, humanize.IBytes(uint64(f.Size)))
	}
}

// Run copies every planned file. A failed file does not stop the run.
// Source files are removed only when deleteSource is set and every copy succeeded.
func (m *Migrator) Run(ctx context.Context, p *Plan, deleteSource bool) (*Report, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	rep := &Report{}
	total := len(p.Files)

	for i, f := range p.Files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		fmt.Fprintf(m.out, "[%d/%d] Uploading %s (%s)...\n", i+1, total, f.Filename, humanize.IBytes(uint64(f.Size)))

		if err := m.copyOne(ctx, f.Filename); err != nil {
			logger.Warn().Err(err).Str("filename", f.Filename).Msg("Failed to migrate file")
			fmt.Fprintf(m.out, "  failed: %v\n", err)
			rep.Failed = append(rep.Failed, Failure{Filename: f.Filename, Err: err})
			continue
		}
		rep.Uploaded = append(rep.Uploaded, f.Filename)
	}

	if !deleteSource {
		return rep, nil
	}
	if len(rep.Failed) > 0 {
		rep.KeptSource = true
		return rep, nil
	}

	for _, name := range rep.Uploaded {
		if err := m.src.Delete(ctx, name); err != nil {
			logger.Warn().Err(err).Str("filename", name).Msg("Failed to delete migrated source file")
			rep.DeleteFailed = append(rep.DeleteFailed, Failure{Filename: name, Err: err})
			continue
		}
		rep.Deleted = append(rep.Deleted, name)
	}
	return rep, nil
}

func (m *Migrator) copyOne(ctx context.Context, filename string) error {
	data, err := m.src.Read(ctx, filename)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if _, err := m.dst.Save(ctx, filename, data); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (m *Migrator) PrintReport(r *Report) {
	fmt.Fprintln(m.out, "Migration completed:")
	fmt.Fprintf(m.out, "  uploaded: %d\n", len(r.Uploaded))
	fmt.Fprintf(m.out, "  failed:   %d\n", len(r.Failed))
	for _, f := range r.Failed {
		fmt.Fprintf(m.out, "  - %s: %v\n", f.Filename, f.Err)
	}

	switch {
	case r.KeptSource:
		fmt.Fprintln(m.out, "Not deleting local files due to upload failures")
	case len(r.Deleted) > 0 || len(r.DeleteFailed) > 0:
		fmt.Fprintf(m.out, "Deleted %d local files\n", len(r.Deleted))
		for _, f := range r.DeleteFailed {
			fmt.Fprintf(m.out, "  - could not delete %s: %v\n", f.Filename, f.Err)
		}
	}
}

// Confirm asks a y/N question; anything except "y" or "yes" means no.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/N): ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
