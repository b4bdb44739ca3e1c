package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/nodeio"
	"github.com/san-kum/forcelayout/internal/particle"
	"github.com/san-kum/forcelayout/internal/sim"
)

const (
	metadataFile = "metadata.json"
	historyFile  = "history.csv"
	finalFile    = "final.coords"
	coordsDir    = "coords"
)

// ErrNoSnapshot is returned when a requested coordinate snapshot was never
// written.
var ErrNoSnapshot = errors.New("storage: snapshot not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Graph      string             `json:"graph"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dimensions int                `json:"dimensions"`
	Nodes      int                `json:"nodes"`
	Edges      int                `json:"edges"`
	Threads    int                `json:"threads"`
	Voxels     int                `json:"voxels"`
	Iterations int                `json:"iterations"`
	State      string             `json:"state"`
	Elapsed    time.Duration      `json:"elapsed_ns"`
	Errors     []string           `json:"errors,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
	Layout     sim.Config         `json:"layout"`
}

// Run is one stored layout. Snapshots may be written while the simulation
// is still going; Finish writes the rest.
type Run struct {
	ID  string
	dir string
	ids []string
}

// Create allocates a directory for a new run.
func (s *Store) Create(ids []string) (*Run, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(filepath.Join(dir, coordsDir), 0755); err != nil {
		return nil, err
	}
	return &Run{ID: id, dir: dir, ids: ids}, nil
}

func (r *Run) Dir() string { return r.dir }

// Discard removes a run that never finished, snapshots included.
func (r *Run) Discard() error { return os.RemoveAll(r.dir) }

func snapshotName(iter int) string {
	return fmt.Sprintf("iter_%08d.coords", iter)
}

// WriteSnapshot writes the current coordinates for iteration iter.
func (r *Run) WriteSnapshot(iter int, pos map[string]core.Vec) error {
	return nodeio.WriteCoordsFile(filepath.Join(r.dir, coordsDir, snapshotName(iter)), r.ids, pos)
}

// Snapshots returns an observer that writes coordinates every interval
// iterations. A zero interval writes nothing.
func (r *Run) Snapshots(interval int) sim.Observer {
	return sim.ObserverFunc(func(st sim.Stats, ps *particle.Set) error {
		if interval <= 0 || st.Iter%interval != 0 {
			return nil
		}
		return r.WriteSnapshot(st.Iter, ps.Positions())
	})
}

// Finish writes the metadata, history and final coordinates.
func (r *Run) Finish(meta RunMetadata, result *sim.Result, pos map[string]core.Vec) error {
	meta.ID = r.ID
	meta.Timestamp = time.Now()
	meta.Nodes = len(r.ids)
	if result != nil {
		meta.Threads = result.Threads
		meta.Voxels = result.Voxels
		meta.Iterations = result.Iterations
		meta.State = result.State.String()
		meta.Elapsed = result.Elapsed
		meta.Metrics = result.Metrics
		for _, err := range result.Errors {
			meta.Errors = append(meta.Errors, err.Error())
		}
	}

	metaFile, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	if err := nodeio.WriteCoordsFile(filepath.Join(r.dir, finalFile), r.ids, pos); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return writeHistory(filepath.Join(r.dir, historyFile), result.History)
}

func writeHistory(path string, history []sim.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"iter", "mean_dx", "max_dx", "crossings", "elapsed_ns"}); err != nil {
		return err
	}
	for _, st := range history {
		row := []string{
			strconv.Itoa(st.Iter),
			strconv.FormatFloat(st.MeanDx, 'g', -1, 64),
			strconv.FormatFloat(st.MaxDx, 'g', -1, 64),
			strconv.Itoa(st.Crossings),
			strconv.FormatInt(int64(st.Elapsed), 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// Resolve expands a unique run ID prefix to the full ID.
func (s *Store) Resolve(prefix string) (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	match := ""
	for _, r := range runs {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("storage: run prefix %q is ambiguous", prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("storage: no run matches %q", prefix)
	}
	return match, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadHistory(runID string) ([]sim.Stats, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, historyFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Stats{}, nil
	}

	history := make([]sim.Stats, 0, len(records)-1)
	for _, rec := range records[1:] {
		iter, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		mean, _ := strconv.ParseFloat(rec[1], 64)
		maxDx, _ := strconv.ParseFloat(rec[2], 64)
		crossings, _ := strconv.Atoi(rec[3])
		elapsed, _ := strconv.ParseInt(rec[4], 10, 64)
		history = append(history, sim.Stats{
			Iter:      iter,
			MeanDx:    mean,
			MaxDx:     maxDx,
			Crossings: crossings,
			Elapsed:   time.Duration(elapsed),
		})
	}
	return history, nil
}

// SnapshotIters lists the iterations with stored coordinates, ascending.
func (s *Store) SnapshotIters(runID string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, runID, coordsDir))
	if err != nil {
		return nil, err
	}
	iters := make([]int, 0, len(entries))
	for _, e := range entries {
		var it int
		if _, err := fmt.Sscanf(e.Name(), "iter_%d.coords", &it); err == nil {
			iters = append(iters, it)
		}
	}
	sort.Ints(iters)
	return iters, nil
}

// LoadCoords reads the coordinates at iteration iter, or the final layout
// when iter is negative.
func (s *Store) LoadCoords(runID string, iter int) (map[string]core.Vec, error) {
	path := filepath.Join(s.baseDir, runID, finalFile)
	if iter >= 0 {
		path = filepath.Join(s.baseDir, runID, coordsDir, snapshotName(iter))
	}
	pos, err := nodeio.ReadPositionsFile(path, 0)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: run %s iteration %d", ErrNoSnapshot, runID, iter)
	}
	return pos, err
}
