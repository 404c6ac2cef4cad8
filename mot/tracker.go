package mot

import (
	"fmt"
	"sort"

	"github.com/arthurkushman/go-hungarian"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy assigns pairs in descending IoU order
	MatchingAlgorithmGreedy
)

// ParseMatchingAlgorithm converts textual name into MatchingAlgorithm
func ParseMatchingAlgorithm(name string) (MatchingAlgorithm, error) {
	switch name {
	case "", "hungarian":
		return MatchingAlgorithmHungarian, nil
	case "greedy":
		return MatchingAlgorithmGreedy, nil
	default:
		return MatchingAlgorithmHungarian, fmt.Errorf("unknown matching algorithm %q", name)
	}
}

// Tracker is ByteTrack-like multi-object tracker (MOT) for person boxes.
// High confidence detections are associated first, low confidence ones only extend existing tracks.
// A track is confirmed after minHits matches; only confirmed tracks should be trusted downstream.
type Tracker struct {
	// Maximum number of frames a track can be missing before it is removed
	maxDisappeared int
	// Minimum IoU between predicted track box and detection to be considered the same
	minIoU float64
	// High detection confidence threshold
	highThresh float64
	// Low detection confidence threshold
	lowThresh float64
	// Number of matches required before a track is confirmed
	minHits int
	// Algorithm to use for matching
	algorithm MatchingAlgorithm
	// Kalman time step
	dt float64
	// Generates identifiers for new tracks
	newID func() uuid.UUID
	// Main storage. Kept as a slice in creation order so association does not depend on map order
	tracks []*Track
}

// DefaultTracker creates a Tracker with default parameters.
func DefaultTracker() *Tracker {
	return NewTracker(30, 0.3, 0.5, 0.1, 3, MatchingAlgorithmHungarian)
}

// NewTracker creates a new instance of Tracker with specified parameters.
func NewTracker(maxDisappeared int, minIoU, highThresh, lowThresh float64, minHits int, algorithm MatchingAlgorithm) *Tracker {
	return &Tracker{
		maxDisappeared: maxDisappeared,
		minIoU:         minIoU,
		highThresh:     highThresh,
		lowThresh:      lowThresh,
		minHits:        minHits,
		algorithm:      algorithm,
		dt:             1.0,
		newID:          uuid.New,
		tracks:         make([]*Track, 0),
	}
}

// SetIDGenerator replaces uuid.New as source of new track identifiers
func (tracker *Tracker) SetIDGenerator(gen func() uuid.UUID) {
	tracker.newID = gen
}

// Tracks returns live tracks in creation order
func (tracker *Tracker) Tracks() []*Track {
	return tracker.tracks
}

// MatchedTracks returns tracks matched on the latest frame in creation order
func (tracker *Tracker) MatchedTracks() []*Track {
	matched := make([]*Track, 0, len(tracker.tracks))
	for _, track := range tracker.tracks {
		if track.matched {
			matched = append(matched, track)
		}
	}
	return matched
}

// Update matches detections of the current frame with existing tracks.
func (tracker *Tracker) Update(detections []Rectangle, confidences []float64) error {
	if len(detections) != len(confidences) {
		return fmt.Errorf("detections and confidences arrays must have the same length. Conf array size: %d. Detections array size: %d",
			len(confidences), len(detections))
	}

	for _, track := range tracker.tracks {
		track.predict()
	}

	matchedTracks := make(map[int]struct{})
	matchedDetections := make(map[int]struct{})

	// 1. First stage: high confidence detections against every track
	highIndices := make([]int, 0)
	for i, conf := range confidences {
		if conf >= tracker.highThresh {
			highIndices = append(highIndices, i)
		}
	}
	allTracks := make([]int, len(tracker.tracks))
	for i := range allTracks {
		allTracks[i] = i
	}
	if err := tracker.associate(allTracks, highIndices, detections, confidences, matchedTracks, matchedDetections); err != nil {
		return errors.Wrap(err, "stage 1")
	}

	// 2. Second stage: low confidence detections against remaining tracks
	remainingTracks := make([]int, 0)
	for i := range tracker.tracks {
		if _, found := matchedTracks[i]; !found {
			remainingTracks = append(remainingTracks, i)
		}
	}
	lowIndices := make([]int, 0)
	for i, conf := range confidences {
		if conf < tracker.highThresh && conf >= tracker.lowThresh {
			lowIndices = append(lowIndices, i)
		}
	}
	if err := tracker.associate(remainingTracks, lowIndices, detections, confidences, matchedTracks, matchedDetections); err != nil {
		return errors.Wrap(err, "stage 2")
	}

	// 3. Unmatched tracks miss the frame, long lost ones are removed
	alive := tracker.tracks[:0]
	for i, track := range tracker.tracks {
		if _, found := matchedTracks[i]; !found {
			track.miss()
		}
		if track.noMatchTimes >= tracker.maxDisappeared {
			continue
		}
		alive = append(alive, track)
	}
	tracker.tracks = alive

	// 4. Unmatched high confidence detections start new tracks
	for _, detIdx := range highIndices {
		if _, found := matchedDetections[detIdx]; found {
			continue
		}
		track := newTrack(tracker.newID(), detections[detIdx], confidences[detIdx], tracker.dt)
		track.confirmed = track.hits >= tracker.minHits
		tracker.tracks = append(tracker.tracks, track)
	}
	return nil
}

// associate matches a subset of tracks with a subset of detections and updates matched tracks
func (tracker *Tracker) associate(
	trackIndices []int,
	detectionIndices []int,
	detections []Rectangle,
	confidences []float64,
	matchedTracks map[int]struct{},
	matchedDetections map[int]struct{},
) error {
	if len(trackIndices) == 0 || len(detectionIndices) == 0 {
		return nil
	}
	iouMatrix := make([][]float64, len(trackIndices))
	for i, trackIdx := range trackIndices {
		row := make([]float64, len(detectionIndices))
		predicted := tracker.tracks[trackIdx].predictedBBox
		for j, detIdx := range detectionIndices {
			row[j] = IoU(predicted, detections[detIdx])
		}
		iouMatrix[i] = row
	}

	var matches [][2]int
	switch tracker.algorithm {
	case MatchingAlgorithmGreedy:
		matches = tracker.greedyMatching(iouMatrix)
	default:
		matches = hungarianMatching(iouMatrix)
	}

	for _, match := range matches {
		i, j := match[0], match[1]
		if iouMatrix[i][j] < tracker.minIoU {
			continue
		}
		trackIdx := trackIndices[i]
		detIdx := detectionIndices[j]
		track := tracker.tracks[trackIdx]
		if err := track.update(detections[detIdx], confidences[detIdx]); err != nil {
			return errors.Wrapf(err, "failed to update track %s", track.id)
		}
		if track.hits >= tracker.minHits {
			track.confirmed = true
		}
		matchedTracks[trackIdx] = struct{}{}
		matchedDetections[detIdx] = struct{}{}
	}
	return nil
}

// hungarianMatching pads IoU matrix to square and solves maximum assignment.
// Returns [row, column] pairs sorted by row.
func hungarianMatching(iouMatrix [][]float64) [][2]int {
	numRows := len(iouMatrix)
	numCols := len(iouMatrix[0])
	size := maxInt(numRows, numCols)
	padded := make([][]float64, size)
	for i := range padded {
		padded[i] = make([]float64, size)
		if i < numRows {
			copy(padded[i], iouMatrix[i])
		}
	}
	assignments := hungarian.SolveMax(padded)
	matches := make([][2]int, 0, len(assignments))
	for row, cols := range assignments {
		for col := range cols {
			if row < numRows && col < numCols {
				matches = append(matches, [2]int{row, col})
			}
			break
		}
	}
	sort.Slice(matches, func(a, b int) bool {
		return matches[a][0] < matches[b][0]
	})
	return matches
}

// greedyMatching takes best IoU pairs first until rows or columns run out
func (tracker *Tracker) greedyMatching(iouMatrix [][]float64) [][2]int {
	candidates := make(pairHeap, 0)
	for i, row := range iouMatrix {
		for j, iou := range row {
			if iou >= tracker.minIoU && iou > 0 {
				candidates.Push(candidatePair{trackIdx: i, detectionIdx: j, iou: iou})
			}
		}
	}
	usedRows := make(map[int]struct{})
	usedCols := make(map[int]struct{})
	matches := make([][2]int, 0)
	for candidates.Len() > 0 {
		pair := candidates.Pop()
		if _, used := usedRows[pair.trackIdx]; used {
			continue
		}
		if _, used := usedCols[pair.detectionIdx]; used {
			continue
		}
		usedRows[pair.trackIdx] = struct{}{}
		usedCols[pair.detectionIdx] = struct{}{}
		matches = append(matches, [2]int{pair.trackIdx, pair.detectionIdx})
	}
	return matches
}
