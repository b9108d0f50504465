package handlers_test

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func send(t *testing.T, api *helpers.TestAPI, method, path string, body []byte) (int, map[string]json.RawMessage) {
	t.Helper()
	c := &fasthttp.Client{Dial: api.Dial}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(api.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}
	require.NoError(t, c.DoTimeout(req, resp, 2*time.Second))

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Body(), &out), string(resp.Body()))
	return resp.StatusCode(), out
}

func TestAPI_EmptyListsCarryData(t *testing.T) {
	api := helpers.StartTestAPI(t, false)

	for _, path := range []string{"/users", "/properties", "/transactions", "/payments"} {
		status, body := send(t, api, fasthttp.MethodGet, path, nil)
		assert.Equal(t, 200, status, path)
		assert.JSONEq(t, `true`, string(body["success"]), path)
		assert.JSONEq(t, `0`, string(body["count"]), path)
		require.Contains(t, body, "data", path)
		assert.JSONEq(t, `[]`, string(body["data"]), path)
	}
}

func TestAPI_FailuresHaveNoData(t *testing.T) {
	api := helpers.StartTestAPI(t, false)

	status, body := send(t, api, fasthttp.MethodGet, "/users/99", nil)
	assert.Equal(t, 404, status)
	assert.JSONEq(t, `false`, string(body["success"]))
	assert.NotContains(t, body, "data")
}

func TestAPI_ZeroAmountPaymentIsRejected(t *testing.T) {
	api := helpers.StartTestAPI(t, false)
	u := helpers.CreateTestUser(t, api.Store, "32165498", "x", "Luis")
	txn := helpers.CreateTestTransaction(t, api.Store, u.ID, "000131717545562O", model.TransactionPending, "2017-09-06 13:25:24")

	body, err := json.Marshal(map[string]any{
		"userId":        u.ID,
		"transactionId": txn.ID,
		"paymentMethod": "Efectivo",
		"amount":        0,
		"status":        "completed",
	})
	require.NoError(t, err)

	status, out := send(t, api, fasthttp.MethodPost, "/payments", body)
	assert.Equal(t, 400, status)
	assert.JSONEq(t, `false`, string(out["success"]))
	assert.JSONEq(t, `["amount"]`, string(out["fields"]))

	_, list := send(t, api, fasthttp.MethodGet, "/payments", nil)
	assert.JSONEq(t, `[]`, string(list["data"]))

	_, txns := send(t, api, fasthttp.MethodGet, "/transactions", nil)
	var got []model.Transaction
	require.NoError(t, json.Unmarshal(txns["data"], &got))
	require.Len(t, got, 1)
	assert.Equal(t, model.TransactionPending, got[0].Estado)
}
