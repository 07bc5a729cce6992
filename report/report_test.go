package report

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/policydetail"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// QUEUE CLIENT
// =============================================================================

func TestQueueActualHistory(t *testing.T) {
	var got ActualHistoryRequest
	var gotKey, gotID, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("ApiKey")
		gotID = r.Header.Get("X-Request-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api", "key-123", 5*time.Second, nil)
	id, err := c.QueueActualHistory(context.Background(), ActualHistoryRequest{
		Year: 2024, IDs: "P1,P2", AllInOne: true, AgentEmail: "agent@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/ActualHistoryReport/Queue", gotPath)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, id, gotID)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, "P1,P2", got.IDs)
	assert.Equal(t, "agent@example.com", got.AgentEmail)
}

func TestQueueActualHistory_WireFieldNames(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL+"/", "", time.Second, nil).
		QueueActualHistory(context.Background(), ActualHistoryRequest{Year: 2023, IDs: "P1"})
	require.NoError(t, err)
	assert.Contains(t, raw, "Ids")
	assert.Contains(t, raw, "WsrCompleted")
}

func TestQueueActualHistory_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "wrong", time.Second, nil).
		QueueActualHistory(context.Background(), ActualHistoryRequest{Year: 2024})
	assert.ErrorIs(t, err, ErrReportRejected)
}

func TestQueueActualHistory_NotConfigured(t *testing.T) {
	_, err := NewClient("", "", time.Second, nil).
		QueueActualHistory(context.Background(), ActualHistoryRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// =============================================================================
// EXPORTS
// =============================================================================

func TestWritePolicies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePolicies(&buf, []cims.PolicySummary{
		{ReinsuranceYear: "2024", PolicyNumber: "100", InsuredName: "Jane Doe", LocationCountyCode: "001,003"},
		{ReinsuranceYear: "2023", PolicyNumber: "100", InsuredName: "Jane Doe"},
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(PoliciesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Reinsurance Year", rows[0][0])
	assert.Equal(t, "Jane Doe", rows[1][3])
	assert.Equal(t, "001,003", rows[1][7])
	assert.Equal(t, "2023", rows[2][0])
}

func TestWritePolicyDetail(t *testing.T) {
	share := "1.000"
	p := &policydetail.Policy{
		ID: 1, InsuredName: "Jane Doe", PolicyNumber: "100", StateAbbreviation: "TX",
		Counties: []policydetail.County{{
			ID: 1, CommodityName: "Pasture,Rangeland,Forage", CountyName: "Anderson",
			Grids: []policydetail.Grid{{
				ID: 1, SubCountyCode: "G1", IntendedUse: "Haying", SharePercent: &share,
				TotalProducerPremiumAmount: "40.5",
				Intervals: []policydetail.Interval{
					{ID: 1, AcreageKey: "R1", IntervalCode: "625", IntervalName: "Jan-Feb"},
					{ID: 2, AcreageKey: "R2", IntervalCode: "631", IntervalName: "Jul-Aug"},
				},
			}},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePolicyDetail(&buf, p))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue(PolicySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)

	grids, err := f.GetRows(GridsSheet)
	require.NoError(t, err)
	require.Len(t, grids, 2)
	assert.Equal(t, "G1", grids[1][4])
	assert.Equal(t, "1.000", grids[1][8])
	assert.Equal(t, "40.5", grids[1][15])

	intervals, err := f.GetRows(IntervalsSheet)
	require.NoError(t, err)
	require.Len(t, intervals, 3)
	assert.Equal(t, "Jul-Aug", intervals[2][4])
}
