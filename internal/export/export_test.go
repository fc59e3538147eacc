package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/store"
)

func rankedLead(name string, score float64, tier model.Tier, bt model.BusinessType) model.Lead {
	l := model.NewLead()
	l.Name = name
	l.Address = name + " st"
	l.LeadScore = score
	l.Tier = tier
	l.BusinessType = bt
	return l
}

func sampleRanked() []model.Lead {
	a := rankedLead("Alinea", 71.2, model.TierA, model.BusinessRestaurant)
	a.ReviewCount = 4200
	a.Rating = model.Float(4.8)
	a.HasEmailSignup = true
	return []model.Lead{
		a,
		rankedLead("Publican Quality Meats", 41.0, model.TierB, model.BusinessButcher),
		rankedLead("Lush Wine", 25.5, model.TierC, model.BusinessWineStore),
		rankedLead("Corner Deli", 3.0, model.TierD, model.BusinessRestaurant),
	}
}

func TestWrite_AllAndTop(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 19, 14, 5, 9, 0, time.UTC)

	res, err := Write(sampleRanked(), Options{Dir: dir, XLSX: true, Now: now})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "3_scored_all_20261019_140509.csv"), res.AllCSV)
	assert.Equal(t, filepath.Join(dir, "3_top_leads_20261019_140509.csv"), res.TopCSV)
	assert.Equal(t, filepath.Join(dir, "3_top_leads_20261019_140509.xlsx"), res.TopXLSX)
	assert.Equal(t, 2, res.Top)

	all, err := store.ReadCSV(res.AllCSV)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Alinea", all[0].Name)
	assert.Equal(t, model.TierA, all[0].Tier)
	assert.InDelta(t, 71.2, all[0].LeadScore, 0.0001)

	raw, err := os.ReadFile(res.TopCSV)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t,
		"name,address,city,state,phone,website,business_type,lead_score,tier,reservation_difficulty,reservation_url,"+
			"review_difficulty_sentiment,booking_availability_score,follower_count,avg_video_views,review_count,"+
			"press_mentions,press_sources,awards_count,awards_list,rating,avg_likes,price_tier,instagram_url,"+
			"ig_followers,facebook_url,fb_likes,has_email_signup,has_ecommerce",
		string(lines[0]))
	assert.Contains(t, string(lines[1]), "Alinea")
	assert.Contains(t, string(lines[2]), "Publican Quality Meats")
}

func TestWrite_CustomTiersNoXLSX(t *testing.T) {
	dir := t.TempDir()
	res, err := Write(sampleRanked(), Options{Dir: dir, TopTiers: []string{"C"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Top)
	assert.Empty(t, res.TopXLSX)

	matches, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWrite_EmptyTop(t *testing.T) {
	dir := t.TempDir()
	leads := []model.Lead{rankedLead("Corner Deli", 3.0, model.TierD, model.BusinessRestaurant)}

	res, err := Write(leads, Options{Dir: dir, XLSX: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Top)

	raw, err := os.ReadFile(res.TopCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(raw, []byte("\n")), "header only")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "top.xlsx")
	leads := sampleRanked()[:2]

	require.NoError(t, WriteXLSX(path, leads, []string{"name", "review_count", "rating", "has_email_signup", "tier"}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	assert.Equal(t, sheetName, sheet.Name)
	require.Len(t, sheet.Rows, 3)

	header := sheet.Rows[0].Cells
	require.Len(t, header, 5)
	assert.Equal(t, "name", header[0].String())
	assert.Equal(t, "tier", header[4].String())

	first := sheet.Rows[1].Cells
	assert.Equal(t, "Alinea", first[0].String())
	assert.Equal(t, xlsx.CellTypeNumeric, first[1].Type())
	assert.Equal(t, xlsx.CellTypeNumeric, first[2].Type())
	assert.Equal(t, "A - Hot Lead", first[4].String())

	second := sheet.Rows[2].Cells
	assert.Equal(t, "", second[2].String(), "missing rating left blank")
}

func TestWriteXLSX_UnknownColumn(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "x.xlsx"), sampleRanked(), []string{"name", "tiktok"})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRanked())
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.ByTier[model.TierA])
	assert.Equal(t, 1, s.ByTier[model.TierD])
	assert.Equal(t, 2, s.ByType[model.BusinessRestaurant])
	assert.Equal(t, 1, s.TopTypes[model.BusinessRestaurant])
	assert.Equal(t, 1, s.TopTypes[model.BusinessButcher])
	assert.Zero(t, s.TopTypes[model.BusinessWineStore])

	var buf bytes.Buffer
	s.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "Total leads:        4")
	assert.Contains(t, out, "Hot leads (A):      1")
	assert.Contains(t, out, "butcher")
	assert.Contains(t, out, "wine_store")
}
