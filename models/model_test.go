package models

import (
	"testing"

	"cadview/db"

	"github.com/stretchr/testify/require"
)

func TestModelDelete_CascadesDependents(t *testing.T) {
	bucket := setupTestDB(t)
	m := Model{Filename: "bracket.step", Format: "STEP", BucketID: bucket.ID}
	require.NoError(t, db.Instance.Create(&m).Error)
	keep := Model{Filename: "flange.iges", Format: "IGES", BucketID: bucket.ID}
	require.NoError(t, db.Instance.Create(&keep).Error)

	RecordView(m.ID, nil, "10.0.0.1", nil, false)
	RecordView(m.ID, strPtr("abc"), "10.0.0.2", nil, true)
	RecordView(keep.ID, nil, "10.0.0.3", nil, false)
	require.NoError(t, db.Instance.Create(&GalleryImage{ModelID: m.ID, Path: "gallery/a"}).Error)
	require.NoError(t, db.Instance.Create(&GalleryImage{ModelID: keep.ID, Path: "gallery/b"}).Error)

	require.NoError(t, m.Delete())

	// View events and gallery images of the deleted model are gone with it
	var count int64
	require.NoError(t, db.Instance.Model(&ViewEvent{}).Where("model_id = ?", m.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)
	require.NoError(t, db.Instance.Model(&GalleryImage{}).Where("model_id = ?", m.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)

	// Other models are untouched
	require.NoError(t, db.Instance.Model(&ViewEvent{}).Where("model_id = ?", keep.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
	require.NoError(t, db.Instance.Model(&GalleryImage{}).Where("model_id = ?", keep.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
