package testsupport

import (
	"path/filepath"
	"testing"

	"echoprep/internal/config"
)

// ExpandFixture holds the paths of a small frame expander input set.
type ExpandFixture struct {
	FileList string
	Tracings string
	Output   string
}

// WriteExpandFixture writes a filelist with three videos and their tracings:
// "0X1" has two frames, "0X2" has a single frame, and "0X3" has three frames.
func WriteExpandFixture(t testing.TB, dir string) ExpandFixture {
	t.Helper()

	fx := ExpandFixture{
		FileList: filepath.Join(dir, "FileList.csv"),
		Tracings: filepath.Join(dir, "VolumeTracings.csv"),
		Output:   filepath.Join(dir, "out", "frames.csv"),
	}
	WriteCSV(t, fx.FileList,
		"FileName,EF,ESV,EDV,FrameHeight,FrameWidth,FPS,NumberOfFrames,Split",
		"0X1,55.5,30,70,112,112,50,200,TRAIN",
		"0X2,60,20,50,112,112,50,200,VAL",
		"0X3,40,40,80,112,112,50,200,TEST",
	)
	WriteCSV(t, fx.Tracings,
		"FileName,X1,Y1,X2,Y2,Frame",
		"0X1,0,0,2,2,10",
		"0X1,2,0,0,2,10",
		"0X1,4,4,6,4,46",
		"0X2,1,1,1,1,5",
		"0X3,1,1,3,3,7",
		"0X3,5,5,7,7,9",
		"0X3,9,9,9,9,12",
	)
	return fx
}

// WriteSplitFixture writes a metadata table and three split directories that
// match cfg.Split. Rows a and d land in train, b in val, and c in test.
func WriteSplitFixture(t testing.TB, cfg *config.Config) {
	t.Helper()

	WriteCSV(t, cfg.Split.MetadataPath,
		"FileName,EF,ESV,EDV,Split",
		"a,50,10,20,",
		"b,51,11,21,",
		"c,52,12,22,",
		"d,53,13,23,",
	)
	suffix := cfg.Split.ImageSuffix
	WriteImages(t, cfg.Split.Dirs.Train, suffix, "a", "d")
	WriteImages(t, cfg.Split.Dirs.Val, suffix, "b")
	WriteImages(t, cfg.Split.Dirs.Test, suffix, "c")
}
