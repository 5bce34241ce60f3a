package records

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"awardbook/internal/blob/core"
	"awardbook/internal/flatfile"
	"awardbook/internal/validation"
)

// Evidence files live under this key prefix in the blob store.
const (
	UploadsPattern = `[\\/]?uploads[\\/].+`
	FilePathWidth  = 256
)

var uploadsRE = validation.Pattern(UploadsPattern)

// Resource is an uploaded file attached to a section or an event.
type Resource struct {
	ID              int
	FilePath        string
	IsSectionReport bool
	Type            ResourceType
	ParentID        int
	DateUploaded    time.Time
}

// NewResource validates a resource uploaded at now.
func NewResource(id int, filePath string, typ ResourceType, parentID int, now time.Time) (*Resource, error) {
	r, err := newResource(itoa(id), filePath, "0", string(typ), itoa(parentID))
	if err != nil {
		return nil, err
	}
	r.DateUploaded = validation.Today(now)
	return r, nil
}

func newResource(id, filePath, isReport, typ, parentID string) (*Resource, error) {
	r := &Resource{}
	var err error
	if r.ID, err = validation.ID(id, IDWidth, "resource ID"); err != nil {
		return nil, err
	}
	if r.FilePath, err = normalizePath(filePath); err != nil {
		return nil, err
	}
	if r.IsSectionReport, err = validation.Flag(isReport, "section report flag"); err != nil {
		return nil, err
	}
	t, err := validation.Lookup(typ, []string{string(ResourceEvent), string(ResourceSectionEvidence)}, "resource type")
	if err != nil {
		return nil, err
	}
	r.Type = ResourceType(t)
	if r.ParentID, err = validation.ID(parentID, IDWidth, "parent ID"); err != nil {
		return nil, err
	}
	return r, nil
}

// normalizePath checks an uploads path and returns it as a slash-separated
// blob key. The key must already be clean so it cannot leave uploads/.
func normalizePath(p string) (string, error) {
	if _, err := validation.Length(p, 1, FilePathWidth, "file path"); err != nil {
		return "", err
	}
	if _, err := validation.Match(p, uploadsRE, "file path", "uploads/<file>"); err != nil {
		return "", err
	}
	key := strings.TrimPrefix(strings.ReplaceAll(p, `\`, "/"), "/")
	if path.Clean(key) != key || !strings.HasPrefix(key, "uploads/") {
		return "", validation.Errorf(validation.PatternMismatch, "file path", p,
			"file path must be a plain path under uploads/, got %q", p)
	}
	return key, nil
}

func (r *Resource) Key() int { return r.ID }

func (r *Resource) Encode() []string {
	return []string{
		itoa(r.ID), r.FilePath, flag(r.IsSectionReport), string(r.Type), itoa(r.ParentID),
		validation.DateString(r.DateUploaded, validation.DefaultSeparator),
	}
}

// ResourceSchema is the layout of ResourceTable.
var ResourceSchema = Schema[int, *Resource]{
	Name: "ResourceTable",
	Columns: []flatfile.Column{
		{Name: "resource_id", Width: IDWidth},
		{Name: "file_path", Width: FilePathWidth},
		{Name: "is_section_report", Width: 1},
		{Name: "resource_type", Width: 16},
		{Name: "parent_link_id", Width: IDWidth},
		{Name: "date_uploaded", Width: 10},
	},
	Decode: func(f []string) (*Resource, error) {
		r, err := newResource(f[0], f[1], f[2], f[3], f[4])
		if err != nil {
			return nil, err
		}
		if f[5] != "" {
			if r.DateUploaded, err = validation.Date(f[5], "upload date", validation.DefaultSeparator, validation.OffsetRange{}, time.Time{}); err != nil {
				return nil, err
			}
		}
		return r, nil
	},
}

// Upload is one incoming evidence file.
type Upload struct {
	Name        string
	Body        io.Reader
	ContentType string
}

// ResourceTable is the resource table plus the store holding the files.
type ResourceTable struct {
	*Table[int, *Resource]
	files core.Store
}

// NewResourceTable returns an empty resource table backed by files.
func NewResourceTable(files core.Store) *ResourceTable {
	return &ResourceTable{Table: NewTable(ResourceSchema), files: files}
}

// Files is the store evidence is written to.
func (t *ResourceTable) Files() core.Store { return t.files }

// ForParent returns the section evidence attached to sectionID.
func (t *ResourceTable) ForParent(sectionID int) []*Resource {
	var out []*Resource
	for _, r := range t.Rows() {
		if r.Type == ResourceSectionEvidence && r.ParentID == sectionID {
			out = append(out, r)
		}
	}
	return out
}

// SectionReport returns the resource marked as sectionID's report.
func (t *ResourceTable) SectionReport(sectionID int) (*Resource, bool) {
	return t.Find(func(r *Resource) bool {
		return r.Type == ResourceSectionEvidence && r.ParentID == sectionID && r.IsSectionReport
	})
}

// HasSectionReport reports whether sectionID has a marked report.
func (t *ResourceTable) HasSectionReport(sectionID int) bool {
	_, ok := t.SectionReport(sectionID)
	return ok
}

// Delete removes the resource and its stored file. A file that is already
// gone is not an error.
func (t *ResourceTable) Delete(ctx context.Context, id int) error {
	r, err := t.MustGet(id)
	if err != nil {
		return err
	}
	if t.files != nil {
		if _, err := t.files.Delete(ctx, r.FilePath); err != nil {
			return fmt.Errorf("delete evidence %s: %w", r.FilePath, err)
		}
	}
	return t.Table.Delete(id)
}

// AddStudentResources stores each upload under uploads/student/id-{id}/ and
// records it as evidence for sectionID. Names already taken get a " (n)"
// suffix before the extension. On failure the files written so far remain
// recorded; the failing upload leaves nothing behind.
func (t *ResourceTable) AddStudentResources(ctx context.Context, studentID, sectionID int, uploads []Upload, now time.Time) ([]*Resource, error) {
	if t.files == nil {
		return nil, fmt.Errorf("no evidence store configured")
	}
	dir := fmt.Sprintf("uploads/student/id-%d", studentID)
	var added []*Resource
	for _, up := range uploads {
		key, err := t.freeKey(ctx, dir, up.Name)
		if err != nil {
			return added, err
		}
		id, err := NextID(t.Table)
		if err != nil {
			return added, err
		}
		r, err := NewResource(id, key, ResourceSectionEvidence, sectionID, now)
		if err != nil {
			return added, err
		}
		if _, err := t.files.Put(ctx, key, up.Body, core.PutOptions{
			ContentType: up.ContentType,
			Metadata:    map[string]string{"original_name": up.Name, "student_id": itoa(studentID)},
		}); err != nil {
			return added, fmt.Errorf("store evidence %s: %w", key, err)
		}
		if err := t.Add(r); err != nil {
			_, _ = t.files.Delete(ctx, key)
			return added, err
		}
		added = append(added, r)
	}
	return added, nil
}

// freeKey picks dir/name, or dir/stem (n).ext, unused by both the store and
// the table.
func (t *ResourceTable) freeKey(ctx context.Context, dir, name string) (string, error) {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return "", validation.Errorf(validation.Required, "file name", name, "upload needs a file name")
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := dir + "/" + name
	for n := 1; ; n++ {
		taken, err := t.pathTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s/%s (%d)%s", dir, stem, n, ext)
	}
}

func (t *ResourceTable) pathTaken(ctx context.Context, key string) (bool, error) {
	if _, ok := t.Find(func(r *Resource) bool { return r.FilePath == key }); ok {
		return true, nil
	}
	return core.Exists(ctx, t.files, key)
}
