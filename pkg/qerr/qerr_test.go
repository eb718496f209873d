package qerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew_NilPassthrough(t *testing.T) {
	if err := New(CodeUploadFailure, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := WithSubject(CodeUploadFailure, "a.txt", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := InStage(StageFetch, CodeFetchToolFailure, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestInStage_KeepsCodeAndSubject(t *testing.T) {
	base := errors.New("boom")
	err := WithSubject(CodeUploadFailure, "assets/app.js", base)
	err = InStage(StageUpload, CodeUnknown, err)

	if !IsCode(err, CodeUploadFailure) {
		t.Fatalf("expected upload_failure, got %v", CodeOf(err))
	}
	if StageOf(err) != StageUpload {
		t.Fatalf("expected stage upload, got %q", StageOf(err))
	}
	if !errors.Is(err, base) {
		t.Fatal("expected cause to be reachable via errors.Is")
	}
	want := "upload: upload_failure [assets/app.js]: boom"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestInStage_ClassifiesForeignErrors(t *testing.T) {
	err := InStage(StageDistribution, CodeProvisioningFailure, errors.New("quota"))
	if !IsCode(err, CodeProvisioningFailure) {
		t.Fatalf("expected provisioning_failure, got %v", CodeOf(err))
	}
}

func TestInStage_FirstStageWins(t *testing.T) {
	err := InStage(StageFetch, CodeUnknown, New(CodeFetchToolFailure, errors.New("x")))
	err = InStage(StageUpload, CodeUnknown, err)
	if StageOf(err) != StageFetch {
		t.Fatalf("expected fetch stage to be kept, got %q", StageOf(err))
	}
}

func TestIsCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeManifestNotFound, errors.New("missing")))
	if !IsCode(err, CodeManifestNotFound) {
		t.Fatal("expected code to be found through fmt wrapping")
	}
	if IsCode(errors.New("plain"), CodeManifestNotFound) {
		t.Fatal("plain errors carry no code")
	}
	if CodeOf(errors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown for plain errors")
	}
}
