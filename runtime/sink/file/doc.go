/*
   Copyright 2026 The Fapilog Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package file implements the rotating file sink.
//
// The active file lives at {directory}/{prefix}{ext}; rotated files are
// renamed to {prefix}-{UTC_YYYYMMDD-HHMMSS}{ext} with an optional .gz
// suffix once background compression finishes. Rotation triggers on
// size (before the write that would exceed max bytes), on a fixed
// interval, or at local midnight. After every rotation, retention
// prunes rotated files in the order age, count, total size, using mtime
// as the ground truth.
package file
