package httpapi

// User-facing messages. The frontend displays them verbatim.
const (
	msgWelcome         = "Bienvenue sur l'API du site de vente de cartes"
	msgProfile         = "Bienvenue sur ton profil"
	msgServerError     = "Erreur serveur"
	msgBadRequest      = "Requête invalide"
	msgRouteNotFound   = "Route introuvable"
	msgAccessDenied    = "Accès refusé"
	msgInvalidToken    = "Token invalide"
	msgUserNotFound    = "Utilisateur non trouvé"
	msgUserCreated     = "Utilisateur créé avec succès"
	msgEmailTaken      = "Email déjà utilisé"
	msgFieldsRequired  = "Tous les champs sont requis"
	msgWrongPassword   = "Mot de passe incorrect"
	msgPasswordTooLong = "Mot de passe trop long (72 octets maximum)"
	msgTooManyAttempts = "Trop de tentatives, réessayez plus tard"
	msgTooManyRequests = "Trop de requêtes, réessayez plus tard"

	msgCardNotFound     = "Carte non trouvée"
	msgCardFields       = "Nom, catégorie et prix sont requis"
	msgCardDeleted      = "Carte supprimée avec succès"
	msgCardListFailed   = "Erreur lors de la récupération des cartes"
	msgCardGetFailed    = "Erreur lors de la récupération de la carte"
	msgCardCreateFailed = "Erreur lors de la création de la carte"
	msgCardUpdateFailed = "Erreur lors de la mise à jour de la carte"
	msgCardDeleteFailed = "Erreur lors de la suppression de la carte"
)
