package onnx

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMetadata(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMetadata(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, md Metadata)
	}{
		{
			name: "defaults filled",
			body: `{"input_shape":[1,3,224,224],"output_shape":[1,1000],"classes":["a"]}`,
			check: func(t *testing.T, md Metadata) {
				if md.InputName != "input" || md.OutputName != "output" {
					t.Errorf("names: %q %q", md.InputName, md.OutputName)
				}
				if md.ImageSize != 224 {
					t.Errorf("ImageSize: got %d", md.ImageSize)
				}
			},
		},
		{
			name: "custom names and normalization",
			body: `{"input_name":"data","output_name":"prob","input_shape":[1,3,96,96],"output_shape":[1,2],"image_size":96,"mean":[0.5,0.5,0.5],"std":[0.25,0.25,0.25]}`,
			check: func(t *testing.T, md Metadata) {
				if md.InputName != "data" || len(md.Mean) != 3 || md.Std[0] != 0.25 {
					t.Errorf("got %+v", md)
				}
			},
		},
		{name: "not json", body: `nope`, wantErr: true},
		{name: "grayscale input", body: `{"input_shape":[1,1,48,48],"output_shape":[1,7]}`, wantErr: true},
		{name: "non-square input", body: `{"input_shape":[1,3,224,160],"output_shape":[1,7]}`, wantErr: true},
		{name: "size mismatch", body: `{"input_shape":[1,3,224,224],"output_shape":[1,7],"image_size":112}`, wantErr: true},
		{name: "missing output", body: `{"input_shape":[1,3,224,224]}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			md, err := LoadMetadata(writeMetadata(t, tc.body))
			if tc.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadMetadata failed: %v", err)
			}
			tc.check(t, md)
		})
	}
}

func TestLoadMetadata_MissingFile(t *testing.T) {
	if _, err := LoadMetadata(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
