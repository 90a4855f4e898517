// Package importer holds the plumbing shared by the three format
// importers: run summaries, split naming and input-file preflight.
package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/db"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/fsutil"
)

// Summary reports what one importer run inserted.
type Summary struct {
	Dataset     string
	Images      int
	Categories  int
	Annotations int
}

func (s *Summary) String() string {
	return fmt.Sprintf("Inserted %d %s images, %d categories, %d annotations.",
		s.Images, s.Dataset, s.Categories, s.Annotations)
}

// SplitFile names one input file and the split its records belong to.
// Importers process splits in slice order, which matters wherever
// first-seen-wins applies.
type SplitFile struct {
	Split string
	Path  string
}

// CheckInputs verifies every path exists before any database work, so a
// run with missing inputs aborts listing all of them at once rather than
// failing on the first open.
func CheckInputs(fs fsutil.FileSystem, paths ...string) error {
	var missing []string
	for _, p := range paths {
		if !fs.Exists(p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required input files:\n%s", strings.Join(missing, "\n"))
	}
	return nil
}

// RecordRun writes the import_run audit row for a finished run.
func RecordRun(database *db.DB, datasetID int64, startedAt time.Time, s *Summary) error {
	return database.RecordImportRun(&db.ImportRun{
		DatasetID:   datasetID,
		StartedAt:   startedAt,
		FinishedAt:  time.Now().UTC(),
		Images:      s.Images,
		Categories:  s.Categories,
		Annotations: s.Annotations,
	})
}
