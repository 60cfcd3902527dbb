package opencv

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func patterned(seed int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*seed + y*y*(seed+1)) % 256)})
		}
	}
	return img
}

func TestNewCascadeDetector_MissingFile(t *testing.T) {
	if _, err := NewCascadeDetector(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Fatal("expected error for missing cascade file")
	}
}

func TestLBPH_TrainSaveLoadPredict(t *testing.T) {
	faces := []*image.Gray{patterned(3), patterned(3), patterned(11), patterned(11)}
	labels := []int{7, 7, 9, 9}

	model, err := LBPHRecognizer{}.Train(faces, labels)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	defer model.Close()

	label, dist, err := model.Predict(patterned(11))
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if label != 9 {
		t.Errorf("expected label 9, got %d (distance %.2f)", label, dist)
	}

	path := filepath.Join(t.TempDir(), "trainer.yml")
	if err := model.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LBPHRecognizer{}.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	defer loaded.Close()

	label, _, err = loaded.Predict(patterned(3))
	if err != nil {
		t.Fatalf("predict after load failed: %v", err)
	}
	if label != 7 {
		t.Errorf("expected label 7 after reload, got %d", label)
	}
}

func TestLBPH_TrainRejectsMismatchedInput(t *testing.T) {
	if _, err := (LBPHRecognizer{}).Train([]*image.Gray{patterned(1)}, nil); err == nil {
		t.Error("expected error for mismatched labels")
	}
	if _, err := (LBPHRecognizer{}).Train(nil, nil); err == nil {
		t.Error("expected error for empty training set")
	}
}

func TestLBPH_LoadMissingFile(t *testing.T) {
	if _, err := (LBPHRecognizer{}).Load(filepath.Join(t.TempDir(), "none.yml")); err == nil {
		t.Error("expected error for missing model")
	}
}
