package rewritelog

import (
	"encoding/gob"
	"os"
)

// Checkpoint holds resumable state for a long-running optimization
// pass: every rewrite applied so far, plus how many worklist nodes had
// been processed when the checkpoint was taken.
type Checkpoint struct {
	Entries        []Entry
	NodesProcessed int
}

func init() {
	gob.Register(Entry{})
}

// Save writes ckpt to path, mirroring the teacher's SaveCheckpoint.
func Save(path string, ckpt *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(ckpt)
}

// Load reads a Checkpoint back from path.
func Load(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, err
	}
	return &ckpt, nil
}
