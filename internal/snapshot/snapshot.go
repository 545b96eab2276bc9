// Package snapshot persists a team's shared channel store to disk so a match
// can be inspected or resumed offline.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/mitchelldurbincs/swarmnav/internal/channel"
)

// Version is bumped whenever the body layout changes.
const Version = 1

var ErrVersion = errors.New("unsupported snapshot version")

type Header struct {
	Version int    `json:"version"`
	MatchID string `json:"match_id"`
	Turn    int    `json:"turn"`
	Team    int    `json:"team"`
}

// LayoutV1 is the information needed to rebuild the channel layout.
type LayoutV1 struct {
	MaxWidth      int `json:"max_width"`
	MaxHeight     int `json:"max_height"`
	QueueCapacity int `json:"queue_capacity"`
}

type SnapshotV1 struct {
	Header Header   `json:"header"`
	Layout LayoutV1 `json:"layout"`
	Home   [2]int   `json:"home"` // absolute home tile
	Values []int32  `json:"values"`
}

// Capture copies the store's current contents.
func Capture(matchID string, turn, team int, home [2]int, store *channel.Store, layout channel.Layout) SnapshotV1 {
	return SnapshotV1{
		Header: Header{Version: Version, MatchID: matchID, Turn: turn, Team: team},
		Layout: LayoutV1{
			MaxWidth:      layout.MaxWidth(),
			MaxHeight:     layout.MaxHeight(),
			QueueCapacity: layout.QueueCapacity(),
		},
		Home:   home,
		Values: store.Snapshot(),
	}
}

// Restore rebuilds the layout and a store holding the captured values.
func (s SnapshotV1) Restore() (*channel.Store, channel.Layout, error) {
	layout, err := channel.NewLayout(s.Layout.MaxWidth, s.Layout.MaxHeight, s.Layout.QueueCapacity)
	if err != nil {
		return nil, channel.Layout{}, err
	}
	store := channel.NewStore(layout.Size())
	if err := store.Restore(s.Values); err != nil {
		return nil, channel.Layout{}, err
	}
	return store, layout, nil
}

// FileName is the conventional name for a team snapshot inside dir.
func FileName(dir, matchID string, turn, team int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_team%d_t%05d.snap.zst", matchID, team, turn))
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadHeader decodes only the leading header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrVersion, snap.Header.Version)
	}
	return snap, nil
}
