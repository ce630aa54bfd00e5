package patterns

// =============================================================================
// PATTERN DEFINITIONS BY CATEGORY
// All patterns are registered here and compiled once at package init.
// This provides a single source of truth for all safety patterns.
// =============================================================================

// --- CRISIS KEYWORD PATTERNS (USER TEXT) ---
// Pattern.Name is the normalized label stored on crisis flags. Raw message
// text never leaves the detector, only these labels do.
func (r *Registry) registerCrisisPatterns() {
	cat := CategoryCrisis

	r.register("suicide", `(?i)\bsuicid(e|al)\b`, cat, 95, "Suicide or suicidal ideation")
	r.register("self-harm", `(?i)\bself[\s-]?harm(ing|ed)?\b`, cat, 90, "Self-harm reference")
	r.register("kill-self", `(?i)\bkill(ing)?\s+(my)?self\b`, cat, 95, "Killing oneself")
	r.register("end-life", `(?i)\bend(ing)?\s+(my\s+)?life\b`, cat, 95, "Ending one's life")
	r.register("want-to-die", `(?i)\bwant\s+to\s+die\b`, cat, 90, "Expressed wish to die")
	r.register("crisis", `(?i)\b(don'?t\s+want\s+to\s+(be\s+alive|live)|take\s+my\s+own\s+life|no\s+way\s+out)\b`, cat, 85, "General crisis language")
}

// --- RISK TIER PATTERNS (USER TEXT, CLASSIFIER) ---
// Leveled vocabularies checked highest-first by the classifier. Word-boundary
// anchored so "skill myself up" or "trending" never match.

func (r *Registry) registerRiskCriticalPatterns() {
	cat := CategoryRiskCritical

	r.register("kill_myself", `(?i)\bkill(ing)?\s+myself\b`, cat, 95, "Direct statement of intent")
	r.register("suicide_plan", `(?i)\bsuicide\s+(plan|note|method)\b`, cat, 95, "Concrete suicide planning")
	r.register("end_my_life", `(?i)\bend(ing)?\s+my\s+life\b`, cat, 95, "Ending own life")
	r.register("going_to_die", `(?i)\bgoing\s+to\s+die\b`, cat, 90, "Imminent death statement")
	r.register("goodbye_forever", `(?i)\bgoodbye\s+forever\b`, cat, 90, "Farewell message")
	r.register("final_message", `(?i)\bfinal\s+(message|goodbye|words)\b`, cat, 90, "Farewell message")
	r.register("overdose", `(?i)\boverdos(e|ed|ing)\b`, cat, 90, "Overdose reference")
	r.register("jump_off", `(?i)\bjump(ing)?\s+off\b`, cat, 85, "Jumping method reference")
	r.register("hanging", `(?i)\bhang(ing)?\s+myself\b`, cat, 95, "Hanging method reference")
	r.register("cutting_deep", `(?i)\bcutting\s+deep(er)?\b`, cat, 90, "Escalated self-injury")
	r.register("die_today", `(?i)\bwant\s+to\s+die\s+(today|tonight|now)\b`, cat, 95, "Immediate wish to die")
}

func (r *Registry) registerRiskHighPatterns() {
	cat := CategoryRiskHigh

	r.register("suicidal_language", `(?i)\bsuicid`, cat, 80, "Any suicide-stem vocabulary")
	r.register("kill_me", `(?i)\bkill\s+me\b`, cat, 75, "Wish to be killed")
	r.register("end_it_all", `(?i)\bend\s+it\s+all\b`, cat, 75, "Ending everything")
	r.register("better_off_dead", `(?i)\bbetter\s+off\s+dead\b`, cat, 80, "Perceived burdensomeness")
	r.register("no_reason_to_live", `(?i)\bno\s+reason\s+to\s+live\b`, cat, 80, "Lost reasons for living")
	r.register("wish_dead", `(?i)\bwish\s+i\s+(was|were)\s+dead\b`, cat, 80, "Passive death wish")
	r.register("want_to_die", `(?i)\bwant\s+to\s+die\b`, cat, 80, "Expressed wish to die")
	r.register("self_harm", `(?i)\bself[\s-]?harm`, cat, 75, "Self-harm vocabulary")
	r.register("cut_myself", `(?i)\bcut(ting)?\s+myself\b`, cat, 75, "Cutting oneself")
	r.register("hurt_myself_badly", `(?i)\bhurt(ing)?\s+myself\s+badly\b`, cat, 75, "Serious self-injury intent")
}

func (r *Registry) registerRiskMediumPatterns() {
	cat := CategoryRiskMedium

	r.register("harm_myself", `(?i)\bharm(ing)?\s+myself\b`, cat, 55, "Self-harm ideation")
	r.register("hurt_myself", `(?i)\bhurt(ing)?\s+myself\b`, cat, 55, "Self-injury ideation")
	r.register("cutting", `(?i)\bcutting\b`, cat, 50, "Cutting reference")
	r.register("self_injury", `(?i)\bself[\s-]?injur(y|e|ing|ious)`, cat, 55, "Self-injury vocabulary")
	r.register("thoughts_of_dying", `(?i)\bthoughts?\s+(of|about)\s+dying\b`, cat, 55, "Passive ideation")
	r.register("life_not_worth", `(?i)\blife\s+(isn'?t|is\s+not)\s+worth\b`, cat, 55, "Life not worth living")
	r.register("feel_worthless", `(?i)\b(feel|feeling|am)\s+worthless\b`, cat, 50, "Worthlessness")
	r.register("burden_to_everyone", `(?i)\beveryone\s+would\s+be\s+better\b`, cat, 55, "Perceived burdensomeness")
	r.register("nothing_matters", `(?i)\bnothing\s+matters\b`, cat, 50, "Anhedonia / despair")
	r.register("no_point", `(?i)\bno\s+point\b`, cat, 45, "Pointlessness")
}

func (r *Registry) registerRiskLowPatterns() {
	cat := CategoryRiskLow

	r.register("hopeless", `(?i)\bhopeless(ness)?\b`, cat, 25, "Hopelessness")
	r.register("helpless", `(?i)\bhelpless(ness)?\b`, cat, 25, "Helplessness")
	r.register("empty_inside", `(?i)\bempty\s+inside\b`, cat, 25, "Emptiness")
	r.register("numb", `(?i)\bnumb(ness)?\b`, cat, 20, "Emotional numbness")
	r.register("cant_cope", `(?i)\bcan'?t\s+cope\b`, cat, 30, "Coping failure")
	r.register("breaking_down", `(?i)\bbreaking\s+down\b`, cat, 25, "Breakdown language")
	r.register("falling_apart", `(?i)\bfalling\s+apart\b`, cat, 25, "Breakdown language")
	r.register("exhausted", `(?i)\bexhaust(ed|ion)\b`, cat, 20, "Exhaustion")
	r.register("burned_out", `(?i)\bburn(ed|t)\s*out\b`, cat, 20, "Burnout")
	r.register("cant_take_it", `(?i)\bcan'?t\s+take\s+(it|this)\b`, cat, 30, "Overwhelm")
	r.register("stressed", `(?i)\bstress(ed|ful)?\b`, cat, 15, "Stress")
	r.register("anxious", `(?i)\banxi(ous|ety)\b`, cat, 15, "Anxiety")
	r.register("overwhelmed", `(?i)\boverwhelm(ed|ing)?\b`, cat, 20, "Overwhelm")
	r.register("lonely", `(?i)\b(so\s+)?lonel(y|iness)\b`, cat, 15, "Loneliness")
}

// --- HARM DIRECTIVE PATTERNS (AI REPLIES, ALWAYS BLOCKING) ---
// A reply matching any of these is blocked regardless of user risk level.
func (r *Registry) registerHarmDirectivePatterns() {
	cat := CategoryHarmDirective

	r.register("you_should_kill", `(?i)\byou\s+should\s+(just\s+)?kill\b`, cat, 100, "Directive to kill")
	r.register("you_should_harm", `(?i)\byou\s+should\s+(just\s+)?(harm|hurt|cut)\s+yourself\b`, cat, 100, "Directive to self-harm")
	r.register("kill_yourself", `(?i)\bkill\s+yourself\b`, cat, 100, "Direct suicide instruction")
	r.register("suicide_is_answer", `(?i)\bsuicide\s+is\s+the\s+(answer|only\s+(way|option))\b`, cat, 100, "Suicide endorsement")
	r.register("end_your_life", `(?i)\bend(ing)?\s+your\s+(own\s+)?life\b`, cat, 100, "Directive to end life")
	r.register("better_off_dead_reply", `(?i)\bbetter\s+off\s+dead\b`, cat, 100, "Death endorsement")
	r.register("no_reason_to_live_reply", `(?i)\bno\s+reason\s+to\s+live\b`, cat, 100, "Hopelessness endorsement")
	r.register("deserve_to_suffer", `(?i)\byou\s+deserve\s+to\s+(suffer|die|be\s+hurt)\b`, cat, 100, "Cruelty toward user")
	r.register("ways_to_harm", `(?i)\bways\s+to\s+(hurt|harm|kill)\b`, cat, 100, "Method enumeration")
}

// --- MEDICAL DOSING PATTERNS (AI REPLIES) ---
// Specific medication dosing advice. Blocked for crisis-grade users, flagged
// otherwise.
func (r *Registry) registerMedicalDosingPatterns() {
	cat := CategoryMedicalDosing

	r.register("take_n_units", `(?i)\btake\s+\d+\s*(mg|mcg|milligrams?|millilitres?|ml|pills?|tablets?)\b`, cat, 80, "Specific dose instruction")
	r.register("units_of_drug", `(?i)\b\d+\s*(mg|mcg)\s+of\s+[a-z]`, cat, 80, "Quantified drug amount")
	r.register("change_dose", `(?i)\b(double|increase|decrease|reduce|skip)\s+(your\s+)?dos(e|age)\b`, cat, 75, "Dose adjustment advice")
	r.register("stop_medication", `(?i)\bstop\s+taking\s+(your\s+)?(medication|meds|antidepressants?|prescription)\b`, cat, 80, "Discontinuation advice")
	r.register("dosage_figure", `(?i)\bdos(e|age)\s+of\s+\d+`, cat, 75, "Quantified dosage")
}

// --- DIAGNOSIS CLAIM PATTERNS (AI REPLIES, FLAGGED) ---
func (r *Registry) registerDiagnosisClaimPatterns() {
	cat := CategoryDiagnosisClaim

	r.register("you_have_depression", `(?i)\byou\s+(clearly\s+|definitely\s+)?have\s+(clinical\s+|major\s+)?depression\b`, cat, 60, "Depression diagnosis")
	r.register("you_are_bipolar", `(?i)\byou\s*(are|'re)\s+(clearly\s+|definitely\s+)?bipolar\b`, cat, 60, "Bipolar diagnosis")
	r.register("you_have_condition", `(?i)\byou\s+have\s+(ptsd|ocd|adhd|schizophrenia)\b`, cat, 60, "Named condition diagnosis")
	r.register("you_suffer_from", `(?i)\byou\s+suffer\s+from\b`, cat, 55, "Condition attribution")
	r.register("diagnosed_with", `(?i)\bdiagnos(ed|ing)\s+(you\s+)?with\b`, cat, 60, "Diagnostic language")
	r.register("mental_illness_claim", `(?i)\byou\s+have\s+a\s+mental\s+illness\b`, cat, 60, "Mental illness attribution")
	r.register("you_have_disorder", `(?i)\byou\s+have\s+an?\s+(anxiety|panic|eating|personality)\s+disorder\b`, cat, 60, "Disorder diagnosis")
}

// --- DISMISSIVE PATTERNS (AI REPLIES) ---
// Minimizing language. Blocked for crisis-grade users, flagged otherwise.
func (r *Registry) registerDismissivePatterns() {
	cat := CategoryDismissive

	r.register("think_positive", `(?i)\bjust\s+think\s+positive\b`, cat, 40, "Toxic positivity")
	r.register("cheer_up", `(?i)\bcheer\s+up\b`, cat, 40, "Minimizing distress")
	r.register("not_that_bad", `(?i)\bit'?s\s+not\s+that\s+bad\b`, cat, 45, "Minimizing distress")
	r.register("others_have_it_worse", `(?i)\bothers?\s+have\s+it\s+worse\b`, cat, 45, "Comparative dismissal")
	r.register("overreacting", `(?i)\byou'?re\s+(just\s+)?overreacting\b`, cat, 45, "Invalidating reaction")
	r.register("snap_out_of_it", `(?i)\bsnap\s+out\s+of\s+it\b`, cat, 45, "Invalidating condition")
	r.register("get_over_it", `(?i)\b(just\s+)?get\s+over\s+it\b`, cat, 45, "Invalidating condition")
	r.register("stop_being_dramatic", `(?i)\bstop\s+being\s+(so\s+)?dramatic\b`, cat, 45, "Invalidating reaction")
}

// --- SAFE REFERRAL PATTERNS (AI REPLIES, NEVER FLAGGED) ---
func (r *Registry) registerSafeReferralPatterns() {
	cat := CategorySafeReferral

	r.register("licensed_professional", `(?i)\b(licensed|qualified)\s+(therapist|counsell?or|professional)\b`, cat, 0, "Professional referral")
	r.register("mental_health_professional", `(?i)\bmental\s+health\s+(professional|provider|service)s?\b`, cat, 0, "Professional referral")
	r.register("talk_to_professional", `(?i)\b(speak|talk)\s+(to|with)\s+a\s+(therapist|counsell?or|doctor|psychologist|professional)\b`, cat, 0, "Professional referral")
	r.register("crisis_line", `(?i)\bcrisis\s+(helpline|hotline|line|text\s+line)\b`, cat, 0, "Crisis line referral")
	r.register("emergency_services", `(?i)\bemergency\s+(services|room|number)\b`, cat, 0, "Emergency referral")
	r.register("reach_out", `(?i)\breach\s+out\s+(to|for)\b`, cat, 0, "Support-seeking encouragement")
}

// --- SAFE COPING PATTERNS (AI REPLIES, NEVER FLAGGED) ---
func (r *Registry) registerSafeCopingPatterns() {
	cat := CategorySafeCoping

	r.register("deep_breathing", `(?i)\b(deep\s+breathing|breathing\s+exercises?)\b`, cat, 0, "Breathing exercise")
	r.register("grounding", `(?i)\bgrounding\s+(technique|exercise)s?\b`, cat, 0, "Grounding exercise")
	r.register("journaling", `(?i)\bjournal(ing)?\b`, cat, 0, "Journaling suggestion")
	r.register("mindfulness", `(?i)\bmindful(ness)?\b`, cat, 0, "Mindfulness suggestion")
	r.register("go_for_walk", `(?i)\bgo\s+for\s+a\s+(walk|run|swim)\b`, cat, 0, "Physical activity")
	r.register("self_care", `(?i)\bself[\s-]?care\b`, cat, 0, "Self-care suggestion")
}
