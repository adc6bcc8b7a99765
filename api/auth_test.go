package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestClient_Authenticate(t *testing.T) {
	t.Run("decodes a successful login", func(t *testing.T) {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != PathAuthenticate {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method %s", r.Method)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("login request must not carry a token")
			}

			var body LoginRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body.Email != "agent@carthage-creances.tn" || body.Password != "s3cret" {
				t.Errorf("unexpected credentials in request: %+v", body)
			}

			json.NewEncoder(w).Encode(map[string]any{
				"token":  "jwt-token",
				"userId": 42,
				"email":  "agent@carthage-creances.tn",
				"nom":    "Ben Salah",
				"prenom": "Amira",
				"role":   "AGENT_DOSSIER",
			})
		}))

		login, err := client.Authenticate(context.Background(), "agent@carthage-creances.tn", "s3cret")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if login.Token != "jwt-token" {
			t.Errorf("unexpected token %q", login.Token)
		}
		if login.UserID.String() != "42" {
			t.Errorf("unexpected userId %q", login.UserID.String())
		}
		if login.Role != "AGENT_DOSSIER" {
			t.Errorf("unexpected role %q", login.Role)
		}
		if len(login.Missing()) != 0 {
			t.Errorf("expected no missing fields, got %v", login.Missing())
		}
	})

	t.Run("folds any 4xx into ErrInvalidCredentials", func(t *testing.T) {
		for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden} {
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
				json.NewEncoder(w).Encode(map[string]string{"message": "Utilisateur inconnu"})
			}))

			_, err := client.Authenticate(context.Background(), "nobody@example.com", "wrong")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("code %d: expected ErrInvalidCredentials, got %v", code, err)
			}
		}
	})

	t.Run("5xx is not invalid credentials", func(t *testing.T) {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		_, err := client.Authenticate(context.Background(), "a@b.c", "pw")
		if err == nil {
			t.Fatal("expected an error")
		}
		if errors.Is(err, ErrInvalidCredentials) {
			t.Error("a 5xx must surface as a transport error, not bad credentials")
		}
	})
}

func TestLoginResponse_Missing(t *testing.T) {
	resp := &LoginResponse{
		Token:  "t",
		Email:  "e@x.tn",
		Prenom: "Amira",
		Role:   "SUPER_ADMIN",
	}

	missing := resp.Missing()
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", missing)
	}
	want := map[string]bool{"userId": true, "nom": true}
	for _, f := range missing {
		if !want[f] {
			t.Errorf("unexpected missing field %q", f)
		}
	}
}

func TestClient_Me(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathMe {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"userId": 7,
			"email":  "chef@carthage-creances.tn",
			"nom":    "Trabelsi",
			"prenom": "Karim",
			"role":   "CHEF_DEPARTEMENT_FINANCE",
			"actif":  true,
		})
	}))
	client.SetToken("tok")

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if user.Email != "chef@carthage-creances.tn" {
		t.Errorf("unexpected email %q", user.Email)
	}
	if user.Actif == nil || !*user.Actif {
		t.Error("expected actif true")
	}
}

func TestClient_MeByEmail(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/email/karim@carthage-creances.tn" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"userId": 7,
			"email":  "karim@carthage-creances.tn",
			"nom":    "Trabelsi",
			"prenom": "Karim",
			"role":   "AGENT_FINANCE",
		})
	}))
	client.SetToken("tok")

	user, err := client.MeByEmail(context.Background(), "karim@carthage-creances.tn")
	if err != nil {
		t.Fatalf("MeByEmail failed: %v", err)
	}
	if user.Role != "AGENT_FINANCE" {
		t.Errorf("unexpected role %q", user.Role)
	}
}

func TestClient_Logout(t *testing.T) {
	var called bool
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == PathLogout {
			called = true
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	client.SetToken("tok")

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if !called {
		t.Error("expected the backend logout endpoint to be hit")
	}
}
