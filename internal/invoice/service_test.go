package invoice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-invoice/internal/common"
)

func TestGenerateSingleItem(t *testing.T) {
	svc, store, renderer := newTestService()

	inv, doc, err := svc.Generate(context.Background(), testUserID, validRequest())
	require.NoError(t, err)

	require.NotEmpty(t, inv.ID)
	require.Equal(t, "Jane Doe", inv.IssuerName)
	require.Equal(t, "jane@example.com", inv.IssuerEmail)
	require.Equal(t, "19.98", inv.SubTotal.StringFixed(2))
	require.Equal(t, "3.60", inv.TaxAmount.StringFixed(2))
	require.Equal(t, "23.58", inv.TotalAmount.StringFixed(2))

	require.Equal(t, ContentTypePDF, doc.ContentType)
	require.Equal(t, "invoice-"+inv.ID+".pdf", doc.Filename)
	require.Contains(t, string(doc.Body), "23.58")
	require.Equal(t, 1, store.creates)
	require.Equal(t, 1, renderer.calls)
}

func TestGenerateMultipleItems(t *testing.T) {
	svc, _, _ := newTestService()
	req := GenerateRequest{
		ClientName:  "Globex",
		ClientEmail: "ap@globex.com",
		LineItems: []LineItemInput{
			{Name: "Design", Quantity: 2, Rate: rate("100.00")},
			{Name: "Hosting", Quantity: 1, Rate: rate("50.00")},
		},
	}
	inv, _, err := svc.Generate(context.Background(), testUserID, req)
	require.NoError(t, err)
	require.Equal(t, "250.00", inv.SubTotal.StringFixed(2))
	require.Equal(t, "45.00", inv.TaxAmount.StringFixed(2))
	require.Equal(t, "295.00", inv.TotalAmount.StringFixed(2))
	require.Equal(t, "Design", inv.LineItems[0].Name)
	require.Equal(t, "Hosting", inv.LineItems[1].Name)
}

func TestGenerateRejectsInvalidQuantity(t *testing.T) {
	svc, store, renderer := newTestService()
	req := validRequest()
	req.LineItems[0].Quantity = 0

	_, _, err := svc.Generate(context.Background(), testUserID, req)
	fields := validationFields(t, err)
	require.Contains(t, fields, "lineItems[0].quantity")
	require.Zero(t, store.creates)
	require.Zero(t, renderer.calls)
}

func TestGenerateRejectsEmptyLineItems(t *testing.T) {
	svc, store, renderer := newTestService()
	req := validRequest()
	req.LineItems = nil

	_, _, err := svc.Generate(context.Background(), testUserID, req)
	require.Contains(t, validationFields(t, err), "lineItems")
	require.Zero(t, store.creates)
	require.Zero(t, renderer.calls)
}

func TestGenerateUnauthenticated(t *testing.T) {
	svc, store, renderer := newTestService()
	for _, userID := range []string{"", "2b0f0c4e-0000-4000-8000-000000000000"} {
		_, _, err := svc.Generate(context.Background(), userID, validRequest())
		require.True(t, common.HasCode(err, common.CodeUnauthorized), userID)
	}
	require.Zero(t, store.creates)
	require.Zero(t, renderer.calls)
}

func TestGenerateIdentityStoreOutage(t *testing.T) {
	outage := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
	for name, failure := range map[string]error{
		"raw":      outage,
		"appError": common.PersistenceFailure(outage),
	} {
		t.Run(name, func(t *testing.T) {
			svc, store, renderer := newTestService()
			svc.Identities = fakeIdentities{failWith: failure}

			_, _, err := svc.Generate(context.Background(), testUserID, validRequest())
			require.True(t, common.HasCode(err, common.CodePersistenceFailure))
			require.False(t, common.HasCode(err, common.CodeUnauthorized))
			require.ErrorIs(t, err, outage)
			require.Zero(t, store.creates)
			require.Zero(t, renderer.calls)
		})
	}
}

func TestGeneratePersistenceFailure(t *testing.T) {
	svc, store, renderer := newTestService()
	store.failWith = errBoom

	_, _, err := svc.Generate(context.Background(), testUserID, validRequest())
	require.True(t, common.HasCode(err, common.CodePersistenceFailure))
	require.ErrorIs(t, err, errBoom)
	require.Zero(t, renderer.calls)
}

func TestGenerateRenderFailureKeepsInvoice(t *testing.T) {
	svc, store, renderer := newTestService()
	renderer.failWith = errBoom

	inv, doc, err := svc.Generate(context.Background(), testUserID, validRequest())
	require.True(t, common.HasCode(err, common.CodeRenderFailure))
	require.Empty(t, doc.Body)
	require.NotEmpty(t, inv.ID)
	require.Len(t, store.invoices, 1)
}

func TestDocumentRendersStoredInvoice(t *testing.T) {
	svc, _, _ := newTestService()
	inv, first, err := svc.Generate(context.Background(), testUserID, validRequest())
	require.NoError(t, err)

	again, err := svc.Document(context.Background(), testUserID, inv.ID)
	require.NoError(t, err)
	require.Equal(t, first, again)

	_, err = svc.Document(context.Background(), "1b8d7a1e-2f3c-4d5e-8f90-a1b2c3d4e5f6", inv.ID)
	require.True(t, common.HasCode(err, common.CodeNotFound))
}

func TestGetAndList(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		inv, _, err := svc.Generate(ctx, testUserID, validRequest())
		require.NoError(t, err)
		ids = append(ids, inv.ID)
	}

	got, err := svc.Get(ctx, testUserID, ids[1])
	require.NoError(t, err)
	require.Equal(t, ids[1], got.ID)

	_, err = svc.Get(ctx, testUserID, "missing")
	require.True(t, common.HasCode(err, common.CodeNotFound))

	page, err := svc.List(ctx, testUserID, 1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	require.Equal(t, ids[2], page.Items[0].ID)

	page, err = svc.List(ctx, testUserID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, ids[0], page.Items[0].ID)
}
