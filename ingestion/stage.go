// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import "fmt"

// Stage identifies where an upload is in its lifecycle.
type Stage int

const (
	StageSplitting Stage = iota
	StageExtracting
	StageJoining
	StagePersisting
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageSplitting:
		return "splitting"
	case StageExtracting:
		return "extracting"
	case StageJoining:
		return "joining"
	case StagePersisting:
		return "persisting"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageObserver is notified of every stage an upload enters.
// It is called synchronously from the uploading goroutine.
type StageObserver func(document string, stage Stage)

// UploadError reports a failed upload and the stage it failed in.
type UploadError struct {
	Stage    Stage
	Document string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q failed while %s: %v", e.Document, e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
