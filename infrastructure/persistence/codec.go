package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"socialhub/domain/model"
	"socialhub/infrastructure/secure"
)

// CredentialCodec turns credential variants into stored payloads and back.
type CredentialCodec struct {
	sealer *secure.Sealer
}

func NewCredentialCodec(sealer *secure.Sealer) CredentialCodec {
	return CredentialCodec{sealer: sealer}
}

func (c CredentialCodec) Encode(creds model.PlatformCredentials) ([]byte, error) {
	raw, err := model.EncodeCredentials(creds)
	if err != nil {
		return nil, err
	}
	return c.sealer.Seal(raw)
}

func (c CredentialCodec) Decode(payload []byte) (model.PlatformCredentials, error) {
	raw, err := c.sealer.Open(payload)
	if err != nil {
		return nil, err
	}
	return model.DecodeCredentials(raw)
}

// videoJSON holds the JSON columns of a video row.
type videoJSON struct {
	tags, platforms, results, errors []byte
}

func marshalVideoJSON(v *model.Video) (videoJSON, error) {
	var out videoJSON
	var err error
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	if out.tags, err = json.Marshal(tags); err != nil {
		return out, fmt.Errorf("marshal tags: %w", err)
	}
	platforms := v.Platforms
	if platforms == nil {
		platforms = []string{}
	}
	if out.platforms, err = json.Marshal(platforms); err != nil {
		return out, fmt.Errorf("marshal platforms: %w", err)
	}
	results := v.UploadResults
	if results == nil {
		results = map[string]model.UploadResult{}
	}
	if out.results, err = json.Marshal(results); err != nil {
		return out, fmt.Errorf("marshal upload results: %w", err)
	}
	errs := v.Errors
	if errs == nil {
		errs = map[string]string{}
	}
	if out.errors, err = json.Marshal(errs); err != nil {
		return out, fmt.Errorf("marshal errors: %w", err)
	}
	return out, nil
}

func (j videoJSON) apply(v *model.Video) error {
	if len(j.tags) > 0 {
		if err := json.Unmarshal(j.tags, &v.Tags); err != nil {
			return fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	if len(j.platforms) > 0 {
		if err := json.Unmarshal(j.platforms, &v.Platforms); err != nil {
			return fmt.Errorf("unmarshal platforms: %w", err)
		}
	}
	if len(j.results) > 0 {
		if err := json.Unmarshal(j.results, &v.UploadResults); err != nil {
			return fmt.Errorf("unmarshal upload results: %w", err)
		}
	}
	if len(j.errors) > 0 {
		if err := json.Unmarshal(j.errors, &v.Errors); err != nil {
			return fmt.Errorf("unmarshal errors: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanVideo reads the columns listed in videoColumns.
func scanVideo(row rowScanner) (*model.Video, error) {
	v := &model.Video{}
	var (
		j       videoJSON
		status  string
		updated sql.NullTime
	)
	if err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.Description, &j.tags, &j.platforms, &v.PrivacyStatus,
		&status, &j.results, &j.errors, &v.CreatedAt, &updated); err != nil {
		return nil, err
	}
	v.Status = model.VideoStatus(status)
	if updated.Valid {
		t := updated.Time
		v.UpdatedAt = &t
	}
	if err := j.apply(v); err != nil {
		return nil, err
	}
	return v, nil
}

// nullableTime normalizes optional timestamps for the SQL Server driver.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
