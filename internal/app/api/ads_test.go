package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"arzweb/internal/app/market"
)

func TestListQueryValuesAreDeterministic(t *testing.T) {
	t.Parallel()

	q := ListQuery{
		Category: market.CategoryHouse,
		Server:   "ViceCity",
		Type:     market.TypeSell,
		Currency: market.CurrencyVC,
		PriceMin: 100,
		Sort:     market.SortPriceAsc,
	}

	a := q.Values(20, 20).Encode()
	b := q.Values(20, 20).Encode()
	if a != b {
		t.Fatalf("expected identical encodings, got %q and %q", a, b)
	}
	if strings.Contains(a, "price_max") {
		t.Fatalf("unset filters must be omitted: %q", a)
	}
	for _, want := range []string{"category=house", "offset=20", "limit=20", "sort=price_asc", "price_min=100"} {
		if !strings.Contains(a, want) {
			t.Fatalf("expected %q in %q", want, a)
		}
	}
}

func TestListAdsNormalizesBothKeyStyles(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category") != "vehicle" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"ads":[
			{"id":1,"server_name":"Phoenix","title":"Infernus &lt;new&gt;","type":"Продать","currency":"$","price":1500,"nickname":"bob","author_rating":4.2,"owner_telegram":"@bob"},
			{"ID":2,"ServerName":"ViceCity","Title":"Cheetah","Type":"Купить","Currency":"VC","Price":900,"Nickname":"amy","Views":3}
		]}`))
	})

	ads, err := client.ListAds(context.Background(), nil, ListQuery{Category: market.CategoryVehicle}, 0, 20)
	if err != nil {
		t.Fatalf("list ads: %v", err)
	}
	if len(ads) != 2 {
		t.Fatalf("expected 2 ads, got %d", len(ads))
	}
	if ads[0].Server != "Phoenix" || ads[0].Title != "Infernus <new>" || ads[0].OwnerRating != 4.2 || ads[0].ContactURL() != "https://t.me/bob" {
		t.Fatalf("unexpected snake_case ad: %+v", ads[0])
	}
	if ads[1].ID != 2 || ads[1].Server != "ViceCity" || ads[1].Owner != "amy" || ads[1].Views != 3 {
		t.Fatalf("unexpected PascalCase ad: %+v", ads[1])
	}
}

func TestViewedAdsReadsNestedListing(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"viewed_ads":[{"id":5,"user_nickname":"bob","ad_id":9,"viewed_at":"2025-01-02T10:00:00Z","Ad":{"id":9,"title":"House","nickname":"amy"}}]}`))
	})

	viewed, err := client.ViewedAds(context.Background(), &jar{})
	if err != nil {
		t.Fatalf("viewed ads: %v", err)
	}
	if len(viewed) != 1 || viewed[0].AdID != 9 || viewed[0].Listing == nil || viewed[0].Listing.Owner != "amy" {
		t.Fatalf("unexpected viewed list: %+v", viewed)
	}
	if viewed[0].ViewedAt.IsZero() {
		t.Fatal("expected viewed_at to be parsed")
	}
}

func TestCreateAdSendsMultipartFields(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/createnewads" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("server") != "Phoenix" || r.FormValue("rentalHoursLimit") != "12" || r.FormValue("pricePeriod") != "hour" {
			t.Errorf("unexpected fields: %v", r.MultipartForm.Value)
		}
		if !strings.HasPrefix(r.FormValue("imagePath"), "ads/house/") || !strings.HasSuffix(r.FormValue("imagePath"), "_bob.png") {
			t.Errorf("unexpected image path %q", r.FormValue("imagePath"))
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			t.Errorf("missing image: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		if string(data) != "png" {
			t.Errorf("unexpected image data %q", data)
		}
		w.Write([]byte(`{"message":"ok"}`))
	})

	err := client.CreateAd(context.Background(), &jar{}, NewAd{
		ListingInput: market.ListingInput{
			Category:    market.CategoryHouse,
			Server:      "Phoenix",
			Type:        market.TypeRentOut,
			Title:       "Villa",
			Description: "Near the beach",
			Currency:    market.CurrencyUSD,
			Price:       500,
			PricePeriod: "hour",
			HoursLimit:  12,
		},
		Nickname: "bob",
		Image:    File{Name: "villa.PNG", ContentType: "image/png", Data: []byte("png")},
	})
	if err != nil {
		t.Fatalf("create ad: %v", err)
	}
}

func TestImagePathFallbacks(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000000)
	got := NewAd{ListingInput: market.ListingInput{Category: market.CategoryOthers}, Image: File{Name: "blob"}}.ImagePath(now)
	if got != "ads/others/1700000000000_user.jpg" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestUpdateAdReturnsStoredCopy(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/ads/42" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		r.ParseMultipartForm(1 << 20)
		w.Write([]byte(`{"message":"ok","ad":{"ID":42,"Title":"` + r.FormValue("title") + `","ServerName":"` + r.FormValue("server_name") + `"}}`))
	})

	saved, err := client.UpdateAd(context.Background(), &jar{}, 42, market.ListingInput{Title: "New title", Server: "Phoenix"}, nil)
	if err != nil {
		t.Fatalf("update ad: %v", err)
	}
	if saved == nil || saved.Title != "New title" || saved.Server != "Phoenix" {
		t.Fatalf("unexpected saved listing: %+v", saved)
	}
}

func TestFeedbackAndCount(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/getadcount":
			if r.URL.Query().Get("CategoryName") != "accs" {
				t.Errorf("unexpected count query %q", r.URL.RawQuery)
			}
			w.Write([]byte(`{"count":17}`))
		case "/api/feedback/amy":
			w.Write([]byte(`{"feedbacks":[{"id":1,"ad_id":9,"reviewer_nickname":"bob","rating":5,"review_text":"Fast deal","confirm_feedback":true}]}`))
		}
	})

	n, err := client.AdCount(context.Background(), nil, market.CategoryAccs)
	if err != nil || n != 17 {
		t.Fatalf("unexpected count %d %v", n, err)
	}

	fb, err := client.Feedback(context.Background(), nil, "amy")
	if err != nil || len(fb) != 1 || fb[0].Rating != 5 || !fb[0].Confirmed || fb[0].Reviewer != "bob" {
		t.Fatalf("unexpected feedback %+v %v", fb, err)
	}
}
