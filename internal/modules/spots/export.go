package spots

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/CR-00/tree/internal/domain"
)

// ArchiveVersion is bumped when the archive layout changes incompatibly.
const ArchiveVersion = 1

// ProfileRecord is the portable form of one stored frequency profile.
type ProfileRecord struct {
	Player   domain.Player                   `json:"player" msgpack:"player"`
	Role     string                          `json:"role" msgpack:"role"`
	Name     string                          `json:"name" msgpack:"name"`
	NodeData map[string]domain.NodeFrequency `json:"nodeData" msgpack:"nodeData"`
}

// Archive bundles a spot with its profiles for export and re-import.
type Archive struct {
	Version    int             `json:"version" msgpack:"version"`
	ExportedAt time.Time       `json:"exported_at" msgpack:"exported_at"`
	Spot       *Spot           `json:"spot" msgpack:"spot"`
	Profiles   []ProfileRecord `json:"profiles" msgpack:"profiles"`
}

// ExportJSON renders a spot and its profiles as an indented JSON archive.
func ExportJSON(spot *Spot, profiles []ProfileRecord) ([]byte, error) {
	data, err := json.MarshalIndent(buildArchive(spot, profiles), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal archive: %w", err)
	}
	return data, nil
}

// ExportArchive renders the same bundle in the compact binary form used
// for bulk transfer and backups.
func ExportArchive(spot *Spot, profiles []ProfileRecord) ([]byte, error) {
	data, err := msgpack.Marshal(buildArchive(spot, profiles))
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}
	return data, nil
}

// ImportArchive decodes a binary archive and validates the contained tree.
func ImportArchive(data []byte) (*Archive, error) {
	var archive Archive
	if err := msgpack.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	return validateArchive(&archive)
}

// ImportJSON decodes a JSON archive and validates the contained tree.
func ImportJSON(data []byte) (*Archive, error) {
	var archive Archive
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("failed to parse archive: %w", err)
	}
	return validateArchive(&archive)
}

func buildArchive(spot *Spot, profiles []ProfileRecord) *Archive {
	return &Archive{
		Version:    ArchiveVersion,
		ExportedAt: time.Now().UTC(),
		Spot:       spot,
		Profiles:   profiles,
	}
}

func validateArchive(archive *Archive) (*Archive, error) {
	if archive.Version > ArchiveVersion {
		return nil, fmt.Errorf("unsupported archive version %d", archive.Version)
	}
	if archive.Spot == nil {
		return nil, fmt.Errorf("archive contains no spot")
	}
	if err := archive.Spot.Validate(); err != nil {
		return nil, fmt.Errorf("archive spot is invalid: %w", err)
	}
	return archive, nil
}
