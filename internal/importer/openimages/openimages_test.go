package openimages

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/db"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/fsutil"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/importer"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	fname := t.Name() + ".db"
	_ = os.Remove(fname)

	database, err := db.Open(fname)
	require.NoError(t, err)
	require.NoError(t, database.Init())
	require.NoError(t, database.SeedDatasets())

	t.Cleanup(func() {
		database.Close()
		_ = os.Remove(fname)
		_ = os.Remove(fname + "-shm")
		_ = os.Remove(fname + "-wal")
	})
	return database
}

func TestReadClassNamesWithHeader(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("classes.csv", []byte(
		"LabelName,DisplayName\n/m/01g317,Person\n/m/0bt9lr,Dog\n"), 0644))

	names, err := readClassNames(fs, "classes.csv")
	require.NoError(t, err)

	want := map[string]string{"/m/01g317": "Person", "/m/0bt9lr": "Dog"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("class names mismatch (-want +got):\n%s", diff)
	}
}

func TestReadClassNamesAlternateHeader(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("classes.csv", []byte(
		"LabelMID,DisplayName\n/m/01g317,Person\n"), 0644))

	names, err := readClassNames(fs, "classes.csv")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/m/01g317": "Person"}, names)
}

// A file with no recognizable header is all data: the first row is a
// literal (label, name) pair, not discarded.
func TestReadClassNamesWithoutHeader(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("classes.csv", []byte(
		"/m/01g317,Person\n/m/0bt9lr,Dog\n"), 0644))

	names, err := readClassNames(fs, "classes.csv")
	require.NoError(t, err)

	want := map[string]string{"/m/01g317": "Person", "/m/0bt9lr": "Dog"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("class names mismatch (-want +got):\n%s", diff)
	}
}

func writeFixtures(t *testing.T, fs *fsutil.MemoryFileSystem) Config {
	t.Helper()

	files := map[string]string{
		"oi/classes.csv": "LabelName,DisplayName\n/m/01g317,Person\n",
		"oi/train-images.csv": "ImageID,Thumbnail300KURL,OriginalURL\n" +
			"train1,http://thumb/1,http://orig/1\n" +
			"train2,,http://orig/2\n" +
			"train3,http://thumb/3,\n",
		"oi/validation-images.csv": "ImageID,Thumbnail300KURL,OriginalURL\n" +
			"val1,http://thumb/v1,\n",
		"oi/test-images.csv": "ImageID,Thumbnail300KURL,OriginalURL\n",
		"oi/train-bbox.csv": "ImageID,LabelName,XMin,XMax,YMin,YMax,IsOccluded,IsTruncated,IsGroupOf,IsDepiction,IsInside\n" +
			"train1,/m/01g317,0.1,0.5,0.2,0.6,0,1,0,0,0\n" +
			"train3,/m/01g317,0.0,1.0,0.0,1.0,0,0,1,0,0\n" +
			"train1,/m/0999,0.3,0.4,0.3,0.4,1,0,0,0,1\n",
		"oi/validation-bbox.csv": "ImageID,LabelName,XMin,XMax,YMin,YMax,IsOccluded,IsTruncated,IsGroupOf,IsDepiction,IsInside\n" +
			"val1,/m/01g317,0.1,0.2,0.1,0.2,0,0,0,0,0\n",
		"oi/test-bbox.csv": "ImageID,LabelName,XMin,XMax,YMin,YMax,IsOccluded,IsTruncated,IsGroupOf,IsDepiction,IsInside\n",
	}
	for name, content := range files {
		require.NoError(t, fs.WriteFile(name, []byte(content), 0644))
	}

	return Config{
		ClassDescriptionsPath: "oi/classes.csv",
		ImageInfoFiles: []importer.SplitFile{
			{Split: "train", Path: "oi/train-images.csv"},
			{Split: "validation", Path: "oi/validation-images.csv"},
			{Split: "test", Path: "oi/test-images.csv"},
		},
		BoxFiles: []importer.SplitFile{
			{Split: "train", Path: "oi/train-bbox.csv"},
			{Split: "validation", Path: "oi/validation-bbox.csv"},
			{Split: "test", Path: "oi/test-bbox.csv"},
		},
		TargetImageCount: 2,
	}
}

// With a target of 2 and three train candidates, exactly the first two
// train images are selected; the validation split is never considered.
func TestSelectionIsSplitCoverageBiased(t *testing.T) {
	database := setupTestDB(t)
	fs := fsutil.NewMemoryFileSystem()
	cfg := writeFixtures(t, fs)

	summary, err := New(database, fs, cfg).Run()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Images)

	rows, err := database.Query("SELECT external_id, split, file_path FROM Image ORDER BY image_id")
	require.NoError(t, err)
	defer rows.Close()

	type img struct{ ID, Split, URL string }
	var got []img
	for rows.Next() {
		var i img
		require.NoError(t, rows.Scan(&i.ID, &i.Split, &i.URL))
		got = append(got, i)
	}
	require.NoError(t, rows.Err())

	want := []img{
		{ID: "train1", Split: "train", URL: "http://thumb/1"},
		{ID: "train2", Split: "train", URL: "http://orig/2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("selected images mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotationsSkipUnselectedImages(t *testing.T) {
	database := setupTestDB(t)
	fs := fsutil.NewMemoryFileSystem()
	cfg := writeFixtures(t, fs)

	summary, err := New(database, fs, cfg).Run()
	require.NoError(t, err)

	// train3 and val1 were not selected, so only train1's two boxes land
	assert.Equal(t, 2, summary.Annotations)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM Annotation").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestNormalizedBoxConversionAndFlags(t *testing.T) {
	database := setupTestDB(t)
	fs := fsutil.NewMemoryFileSystem()
	cfg := writeFixtures(t, fs)

	_, err := New(database, fs, cfg).Run()
	require.NoError(t, err)

	var xmin, ymin, width, height, area float64
	var isCrowd, difficulty *int
	var sourceInfo string
	err = database.QueryRow(`
		SELECT a.bbox_xmin, a.bbox_ymin, a.bbox_width, a.bbox_height, a.area,
		       a.is_crowd, a.difficulty, a.source_info
		FROM Annotation a
		JOIN Category c ON a.category_id = c.category_id
		WHERE c.external_id = '/m/01g317'`,
	).Scan(&xmin, &ymin, &width, &height, &area, &isCrowd, &difficulty, &sourceInfo)
	require.NoError(t, err)

	assert.InDelta(t, 0.1, xmin, 1e-9)
	assert.InDelta(t, 0.2, ymin, 1e-9)
	assert.InDelta(t, 0.4, width, 1e-9)
	assert.InDelta(t, 0.4, height, 1e-9)
	assert.InDelta(t, 0.16, area, 1e-9)
	assert.Nil(t, isCrowd)
	assert.Nil(t, difficulty)
	assert.Equal(t, "IsOccluded=0;IsTruncated=1;IsGroupOf=0;IsDepiction=0;IsInside=0", sourceInfo)
}

func TestCategoryDisplayNameFallback(t *testing.T) {
	database := setupTestDB(t)
	fs := fsutil.NewMemoryFileSystem()
	cfg := writeFixtures(t, fs)

	_, err := New(database, fs, cfg).Run()
	require.NoError(t, err)

	// /m/0999 has no class description, so the raw label id is the name
	var name string
	err = database.QueryRow("SELECT name FROM Category WHERE external_id = '/m/0999'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "/m/0999", name)

	err = database.QueryRow("SELECT name FROM Category WHERE external_id = '/m/01g317'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "Person", name)
}

func TestImageWidthHeightUnset(t *testing.T) {
	database := setupTestDB(t)
	fs := fsutil.NewMemoryFileSystem()
	cfg := writeFixtures(t, fs)

	_, err := New(database, fs, cfg).Run()
	require.NoError(t, err)

	var width, height *int
	err = database.QueryRow("SELECT width, height FROM Image WHERE external_id = 'train1'").Scan(&width, &height)
	require.NoError(t, err)
	assert.Nil(t, width)
	assert.Nil(t, height)
}

func TestMissingImageIDColumnFatal(t *testing.T) {
	database := setupTestDB(t)
	fs := fsutil.NewMemoryFileSystem()
	cfg := writeFixtures(t, fs)
	require.NoError(t, fs.WriteFile("oi/train-images.csv", []byte(
		"SomeColumn,Thumbnail300KURL\nx,http://thumb/1\n"), 0644))

	_, err := New(database, fs, cfg).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ImageID-like column")
}
